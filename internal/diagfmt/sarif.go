package diagfmt

import (
	"io"
	"sort"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"vprintf/internal/diag"
	"vprintf/internal/source"
)

const (
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
	sarifVersion = "2.1.0"
)

// SarifLog is the root of a SARIF 2.1.0 document.
type SarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool              sarifTool         `json:"tool"`
	AutomationDetails sarifAutomation   `json:"automationDetails"`
	Invocations       []sarifInvocation `json:"invocations,omitempty"`
	Results           []sarifResult     `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string    `json:"id"`
	ShortDescription sarifText `json:"shortDescription"`
}

type sarifAutomation struct {
	GUID string `json:"guid"`
}

type sarifInvocation struct {
	Arguments           []string `json:"arguments,omitempty"`
	ExecutionSuccessful bool     `json:"executionSuccessful"`
}

type sarifText struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID           string          `json:"ruleId"`
	Level            string          `json:"level"`
	Message          sarifText       `json:"message"`
	Locations        []sarifLocation `json:"locations,omitempty"`
	RelatedLocations []sarifLocation `json:"relatedLocations,omitempty"`
	Fixes            []sarifFix      `json:"fixes,omitempty"`
}

type sarifLocation struct {
	ID               int           `json:"id,omitempty"`
	PhysicalLocation sarifPhysical `json:"physicalLocation"`
	Message          *sarifText    `json:"message,omitempty"`
}

type sarifPhysical struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           *sarifRegion  `json:"region,omitempty"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   uint32 `json:"startLine,omitempty"`
	StartColumn uint32 `json:"startColumn,omitempty"`
	EndLine     uint32 `json:"endLine,omitempty"`
	EndColumn   uint32 `json:"endColumn,omitempty"`
	ByteOffset  uint32 `json:"byteOffset"`
	ByteLength  uint32 `json:"byteLength"`
}

type sarifFix struct {
	Description     sarifText             `json:"description"`
	ArtifactChanges []sarifArtifactChange `json:"artifactChanges"`
}

type sarifArtifactChange struct {
	ArtifactLocation sarifArtifact      `json:"artifactLocation"`
	Replacements     []sarifReplacement `json:"replacements"`
}

type sarifReplacement struct {
	DeletedRegion   sarifRegion `json:"deletedRegion"`
	InsertedContent sarifText   `json:"insertedContent"`
}

func sarifLevel(sev diag.Severity) string {
	if sev == diag.SevInfo {
		return "note"
	}
	return sev.Label()
}

func sarifPhysicalFor(span source.Span, fs *source.FileSet) (sarifPhysical, bool) {
	if fs == nil {
		return sarifPhysical{}, false
	}
	f := fs.Get(span.File)
	if f == nil {
		return sarifPhysical{}, false
	}
	phys := sarifPhysical{ArtifactLocation: sarifArtifact{URI: formatPath(f, fs, PathModeRelative)}}
	if len(f.Content) > 0 {
		start, end := fs.Resolve(span)
		phys.Region = &sarifRegion{
			StartLine:   start.Line,
			StartColumn: start.Col,
			EndLine:     end.Line,
			EndColumn:   end.Col,
			ByteOffset:  span.Start,
			ByteLength:  span.Len(),
		}
	}
	return phys, true
}

// BuildSarif assembles a SARIF log with one run.
func BuildSarif(bag *diag.Bag, fs *source.FileSet, meta SarifRunMeta) SarifLog {
	name := meta.ToolName
	if name == "" {
		name = "vprintf"
	}
	run := sarifRun{
		Tool:              sarifTool{Driver: sarifDriver{Name: name, Version: meta.ToolVersion}},
		AutomationDetails: sarifAutomation{GUID: uuid.NewString()},
		Results:           []sarifResult{},
	}

	rules := make(map[diag.Code]struct{})
	success := true
	var items []*diag.Diagnostic
	if bag != nil {
		items = bag.Items()
	}
	for _, d := range items {
		rules[d.Code] = struct{}{}
		if d.Severity == diag.SevError {
			success = false
		}
		res := sarifResult{
			RuleID:  d.Code.ID(),
			Level:   sarifLevel(d.Severity),
			Message: sarifText{Text: d.Message},
		}
		if phys, ok := sarifPhysicalFor(d.Primary, fs); ok {
			res.Locations = []sarifLocation{{PhysicalLocation: phys}}
		}
		for i, n := range d.Notes {
			if phys, ok := sarifPhysicalFor(n.Span, fs); ok {
				res.RelatedLocations = append(res.RelatedLocations, sarifLocation{
					ID:               i + 1,
					PhysicalLocation: phys,
					Message:          &sarifText{Text: n.Msg},
				})
			}
		}
		for _, fix := range d.Fixes {
			sf := sarifFix{Description: sarifText{Text: fix.Title}}
			for _, edit := range fix.Edits {
				phys, ok := sarifPhysicalFor(edit.Span, fs)
				if !ok {
					continue
				}
				sf.ArtifactChanges = append(sf.ArtifactChanges, sarifArtifactChange{
					ArtifactLocation: phys.ArtifactLocation,
					Replacements: []sarifReplacement{{
						DeletedRegion:   sarifRegion{ByteOffset: edit.Span.Start, ByteLength: edit.Span.Len()},
						InsertedContent: sarifText{Text: edit.NewText},
					}},
				})
			}
			if len(sf.ArtifactChanges) > 0 {
				res.Fixes = append(res.Fixes, sf)
			}
		}
		run.Results = append(run.Results, res)
	}

	codes := make([]diag.Code, 0, len(rules))
	for c := range rules {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	for _, c := range codes {
		run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{
			ID:               c.ID(),
			ShortDescription: sarifText{Text: c.Title()},
		})
	}
	run.Invocations = []sarifInvocation{{Arguments: meta.InvocationArgs, ExecutionSuccessful: success}}

	return SarifLog{Schema: sarifSchema, Version: sarifVersion, Runs: []sarifRun{run}}
}

// Sarif форматирует диагностики в SARIF формат (v2.1.0)
func Sarif(w io.Writer, bag *diag.Bag, fs *source.FileSet, meta SarifRunMeta) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildSarif(bag, fs, meta))
}
