package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Формат-строка: грамматика и разрешение типов
	FmtInfo              Code = 1000
	FmtInvalidType       Code = 1001
	FmtEndedEarly        Code = 1002
	FmtVariableWidth     Code = 1003
	FmtVariablePrecision Code = 1004
	FmtSizeNotAllowed    Code = 1005

	// арность
	FmtArityMismatch Code = 1101

	// форма вызова
	FmtNonLiteral  Code = 1201
	FmtSpreadArgs  Code = 1202
	FmtBadLiteral  Code = 1203
	FmtEmbeddedNUL Code = 1204

	// раскладка записи на хосте не совпадает с целевой
	FmtLayoutMismatch Code = 1301

	// advisories
	FmtTooManyArgs Code = 1901

	// Go syntax errors in input files
	SynInfo              Code = 2000
	SynGoSyntax          Code = 2001
	SynMissingConstraint Code = 2002 // нет //go:build с тегом

	IOLoadFileError  Code = 4001
	IOWriteFileError Code = 4002

	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:          "Unknown error",
		FmtInfo:              "Format string information",
		FmtInvalidType:       "Invalid type specifier",
		FmtEndedEarly:        "Format specifier ended early",
		FmtVariableWidth:     "Variable width is not supported",
		FmtVariablePrecision: "Variable precision is not supported",
		FmtSizeNotAllowed:    "Size prefix not allowed for this type",
		FmtArityMismatch:     "Argument count does not match format",
		FmtNonLiteral:        "Format must be a string literal",
		FmtSpreadArgs:        "Spread arguments are not supported",
		FmtBadLiteral:        "Malformed string literal",
		FmtEmbeddedNUL:       "Format contains a NUL byte",
		FmtLayoutMismatch:    "Record layout differs from the target ABI",
		FmtTooManyArgs:       "Too many printf arguments",
		SynInfo:              "Syntax information",
		SynGoSyntax:          "Go syntax error",
		SynMissingConstraint: "Missing build constraint",
		IOLoadFileError:      "I/O load file error",
		IOWriteFileError:     "I/O write file error",
		ObsInfo:              "Observability information",
		ObsTimings:           "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("FMT%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
