// Copyright 2023 uhppoted@twyst.co.za. All rights reserved.
// Use of this source code is governed by an MIT-style license
// that can be found in the LICENSE file.

/*
Package sheets-inventory keeps an inventory of in-world entities in a Google Sheets spreadsheet.

The inventory panel authenticates with Google (OAuth2 implicit grant), creates the inventory spreadsheet on
first use, appends the selected entities to it as rows and rezzes an entity from a selected row after
verifying the row checksum.

sheets-inventory supports the following commands:

  - authorise, to authorise access to Google Sheets and provision the inventory spreadsheet
  - run, to serve the inventory panel
  - get, to download the inventory as a TSV file
  - put, to append the entries in a TSV file to the inventory
  - version, to display the current version
*/
package inventory
