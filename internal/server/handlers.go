package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"vprintf/internal/diag"
	"vprintf/internal/diagfmt"
	"vprintf/internal/layout"
	"vprintf/internal/printf"
	"vprintf/internal/source"
)

type CheckRequest struct {
	Format string `json:"format"`
	Args   *int   `json:"args,omitempty"`
}

type SpecJSON struct {
	Text  string          `json:"text"`
	Start int             `json:"start"`
	End   int             `json:"end"`
	Type  printf.WireType `json:"type"`
}

type CheckError struct {
	Code    string `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	// Suggestion is a portable spelling of the rejected conversion.
	Suggestion string `json:"suggestion,omitempty"`
}

type CheckResponse struct {
	OK       bool              `json:"ok"`
	Specs    []SpecJSON        `json:"specs"`
	Types    []printf.WireType `json:"types"`
	Warnings []string          `json:"warnings,omitempty"`
	Error    *CheckError       `json:"error,omitempty"`
}

// checkFormat scans format; when nargs is nil the argument count is taken
// from the format itself.
func (s *Server) checkFormat(format string, nargs *int) CheckResponse {
	resp := CheckResponse{Specs: []SpecJSON{}, Types: []printf.WireType{}}
	specs, err := printf.Scan(format)
	if err == nil {
		n := len(specs)
		if nargs != nil {
			n = *nargs
		}
		var res printf.Result
		res, err = printf.CheckLimit(format, n, s.cfg.Limits.MaxArgsWarning)
		if err == nil {
			resp.OK = true
			resp.Types = res.Types
			if res.TooManyArgs {
				resp.Warnings = append(resp.Warnings, printf.TooManyArgsMsg+" ("+printf.TooManyArgsLink+")")
			}
		}
	}
	for _, sp := range specs {
		resp.Specs = append(resp.Specs, SpecJSON{Text: sp.Text(), Start: sp.Start, End: sp.End, Type: sp.Type})
	}

	var pe *printf.ParseError
	var ae *printf.ArityError
	switch {
	case errors.As(err, &pe):
		end := pe.End
		if !pe.HasEnd {
			end = len(format)
		}
		ce := &CheckError{
			Code:    pe.Kind.Code().ID(),
			Kind:    pe.Kind.String(),
			Message: pe.Error(),
			Start:   pe.Start,
			End:     end,
		}
		if sugg, ok := pe.Suggestion(); ok {
			ce.Suggestion = sugg
		}
		resp.Error = ce
	case errors.As(err, &ae):
		resp.Error = &CheckError{Code: diag.FmtArityMismatch.ID(), Kind: "ArityMismatch", Message: ae.Error(), End: len(format)}
	}
	return resp
}

func (s *Server) handleCheck(c *echo.Context) error {
	req, err := decodeJSON[CheckRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if req.Args != nil && *req.Args < 0 {
		return writeBadRequest(c, "args must be >= 0")
	}
	return c.JSON(http.StatusOK, s.checkFormat(req.Format, req.Args))
}

type LayoutRequest struct {
	Format string `json:"format"`
	Target string `json:"target,omitempty"`
}

type LayoutResponse struct {
	Target string              `json:"target"`
	Layout layout.RecordLayout `json:"layout"`
	CDecl  string              `json:"cdecl"`
}

func (s *Server) handleLayout(c *echo.Context) error {
	req, err := decodeJSON[LayoutRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	eng, err := s.engineFor(req.Target)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	check := s.checkFormat(req.Format, nil)
	if check.Error != nil {
		return c.JSON(http.StatusUnprocessableEntity, check)
	}
	l, err := eng.LayoutOf(check.Types)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
	return c.JSON(http.StatusOK, LayoutResponse{
		Target: eng.Target.Triple,
		Layout: l,
		CDecl:  l.CDecl("vprintf_args"),
	})
}

type ExpandRequest struct {
	Filename string `json:"filename"`
	Source   string `json:"source"`
}

type ExpandResponse struct {
	OK          bool                      `json:"ok"`
	Output      string                    `json:"output,omitempty"`
	Calls       int                       `json:"calls"`
	Diagnostics diagfmt.DiagnosticsOutput `json:"diagnostics"`
}

func (s *Server) handleExpand(c *echo.Context) error {
	req, err := decodeJSON[ExpandRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if req.Filename == "" {
		req.Filename = "input.go"
	}
	fs := source.NewFileSet()
	id := fs.AddVirtual(req.Filename, []byte(req.Source))
	res := s.exp.Expand(c.Request().Context(), fs, id, true)
	res.Bag.Sort()

	return c.JSON(http.StatusOK, ExpandResponse{
		OK:     !res.Failed(),
		Output: string(res.Output),
		Calls:  res.Calls,
		Diagnostics: diagfmt.BuildDiagnosticsOutput(res.Bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         diagfmt.PathModeBasename,
			IncludeNotes:     true,
			IncludeFixes:     true,
		}),
	})
}
