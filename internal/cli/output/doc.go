// Package output renders command results as a table, JSON or YAML.
//
// Tables are built from structs, maps and slices by reflection; json tags
// name the columns. Spinner and Bar draw progress on a terminal.
package output
