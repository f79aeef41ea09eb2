// Package services implements the driving ports on top of the driven ones.
//
// Ingest walks a directory, skips photos whose content hash is unchanged,
// runs OCR on a bounded worker pool and serialises store writes. Search
// parses the query for the chosen match mode and ranks what the store
// returns. Watch feeds filesystem events and a cron rescan back into ingest.
// Image and Settings are thin reads and writes over their stores.
package services
