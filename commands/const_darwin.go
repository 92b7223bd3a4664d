package commands

const (
	_etc = "/usr/local/etc/com.github.dealdesk.sheets-merge"
	_var = "/usr/local/var/com.github.dealdesk.sheets-merge"

	DEFAULT_WORKDIR     = _var
	DEFAULT_CREDENTIALS = _etc + "/.google/credentials.json"
)
