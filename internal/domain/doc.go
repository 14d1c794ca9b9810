// Package domain models distributor royalty reports and their canonical form.
//
// # Data Source
//
// Royalty and streaming statements are exported by music distributors and
// aggregators (DistroKid, TuneCore, Believe, ONErpm, label backends, …) as
// CSV or XLSX. There is no shared schema: column names differ per
// distributor and per reporting language, encodings range from UTF-8 to
// cp1251, and granularities vary from one row per track-month to one row
// per track-country-platform-day. The ingestion adapters deliver each file
// as an ordered column list plus rows of tagged scalar cells; this package
// narrows those rows into the canonical model.
//
// # Canonical Fields
//
// Every report is normalized into exactly ten fields:
//
//	reporting_month  statement month, e.g. "2023-01"
//	country          listener country / territory
//	platform         store or streaming service
//	artist_name      performer
//	release_title    album / EP / single title
//	track_title      song title
//	isrc             International Standard Recording Code (track id)
//	upc              UPC/EAN barcode (release id)
//	quantity         streams / units / downloads
//	revenue          royalty amount in the report's own currency
//
// The set is closed. Fields beyond it (content type, transaction type,
// label, currency, …) are dropped at projection, except that a raw
// "currency" column informs the dataset's currency hint first.
//
// # Identifier Conventions
//
//	ISRC: 12 characters, country code + registrant + year + designation,
//	      frequently written with dashes ("US-S1Z-99-00001"). Normalized by
//	      uppercasing and stripping non-alphanumerics before grouping.
//	UPC:  12-13 digits, sometimes exported with stray whitespace or
//	      separator characters. The same normalization applies.
//
// Identifiers are sparse: many distributor exports omit them for part of
// the catalog, so grouping degrades to title-based keys when no row in
// context carries one. Rows whose identifier normalizes to the empty
// string form a single missing-identifier group rather than being dropped;
// they represent real revenue.
//
// # Numeric Coercion
//
// Quantity and revenue cells that are absent or unparsable coerce to 0,
// never to an error. Large reports routinely contain a few corrupt numeric
// cells, and financial completeness of the readable rows is preferred over
// strict rejection. See [Value.Float].
package domain
