/*
Package sheets-merge merges rows from a deal intake spreadsheet into a shared Google Sheets worksheet.

Rows are matched on a composite key (by default the "Opp No" and "Detail Key" columns). Every target
row's status column is first reset to NOT_EXIST, matched rows are then updated and marked UPDATED or
NO_UPDATE, and source rows without a match are added at the top of the worksheet as NEWLY_ADDED.

sheets-merge is intended to be run from the command line or a scheduled job and supports the
following commands:

  - merge, to merge a local spreadsheet file (or another worksheet range) into a worksheet
  - compare, to reconcile without writing and record the result on a report worksheet
  - get, to download a Google Sheets worksheet as a TSV or XLSX file
  - put, to store a TSV, CSV or XLSX file to a Google Sheets worksheet
  - version
*/
package sheets
