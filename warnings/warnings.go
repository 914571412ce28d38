// Package warnings contains the non-fatal problems found while parsing a GTFS static feed.
package warnings

import (
	"fmt"

	"github.com/yyctransit/gtfs/constants"
)

type StaticWarning interface {
	File() constants.StaticFile
	Error() string
}

// MissingColumns is reported when a row lacks one or more required values.
type MissingColumns struct {
	FileName    constants.StaticFile
	Entity      constants.ScheduleEnity
	RowNumber   int
	MissingKeys []string
}

func (w MissingColumns) File() constants.StaticFile {
	return w.FileName
}

func (w MissingColumns) Error() string {
	return fmt.Sprintf("skipping %s on row %d because of missing columns %s", w.Entity, w.RowNumber, w.MissingKeys)
}

// InvalidReference is reported when a row points at an entity that does not exist.
type InvalidReference struct {
	FileName  constants.StaticFile
	Entity    constants.ScheduleEnity
	RowNumber int
	Key       string
	Value     string
}

func (w InvalidReference) File() constants.StaticFile {
	return w.FileName
}

func (w InvalidReference) Error() string {
	return fmt.Sprintf("skipping %s on row %d because %s %q is invalid", w.Entity, w.RowNumber, w.Key, w.Value)
}

// InvalidValue is reported when a value cannot be parsed.
type InvalidValue struct {
	FileName  constants.StaticFile
	Entity    constants.ScheduleEnity
	RowNumber int
	Key       string
	Value     string
}

func (w InvalidValue) File() constants.StaticFile {
	return w.FileName
}

func (w InvalidValue) Error() string {
	return fmt.Sprintf("skipping %s on row %d because %s %q could not be parsed", w.Entity, w.RowNumber, w.Key, w.Value)
}
