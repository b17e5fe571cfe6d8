package ports

// Format is the identifier for each input layout format this core can load.
type Format string

const (
	FormatGDSII Format = "gds"
	FormatDXF   Format = "dxf"
)
