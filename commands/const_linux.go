package commands

const (
	_etc = "/usr/local/etc/sheets-merge"
	_var = "/usr/local/var/sheets-merge"

	DEFAULT_WORKDIR     = _var
	DEFAULT_CREDENTIALS = _etc + "/.google/credentials.json"
)
