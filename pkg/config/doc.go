// Package config loads the YAML configuration this module's components
// read at startup. It covers only the options the middle layer and the
// multipolygon assembler consume; reader/writer options (style file,
// input format, tablespace, hstore mode) belong to those layers and are
// intentionally absent here.
package config
