// Package server exposes statement conversion over HTTP.
package server

import "time"

// Conversion is the record kept for every successful conversion
type Conversion struct {
	ID        string    `json:"id"`
	Parser    string    `json:"parser"`
	Images    int       `json:"images"`
	Records   int       `json:"records"`
	Format    string    `json:"format"`
	Filename  string    `json:"filename"`
	Warnings  []string  `json:"warnings"`
	CreatedAt time.Time `json:"created_at"`
}
