// Package model defines the persisted records of the unit-mapping pipeline.
package model

// Unit is one geocoded commercial unit. It is created once per spreadsheet
// row during an ETL run and never mutated afterwards. Latitude, Longitude
// and EnderecoUsado are either all set or all nil: a unit without
// coordinates carries no geocode provenance.
type Unit struct {
	ID               string   `json:"id"`
	Rede             string   `json:"rede"`
	Nome             string   `json:"nome"`
	EnderecoOriginal string   `json:"endereco_original"`
	CNPJ             string   `json:"cnpj,omitempty"`
	EnderecoUsado    *string  `json:"endereco_usado_geocode"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
}
