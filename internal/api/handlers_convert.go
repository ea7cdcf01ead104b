package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/docflow/docflow/internal/convert"
	"github.com/docflow/docflow/internal/generator"
)

// handleConvert accepts a multipart PDF upload and returns the converted
// document as the response body. Conversion options arrive as form fields
// alongside the file.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart request", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	opts, err := optionsFromForm(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := s.converter.Convert(r.Context(), data, opts, nil)
	if !result.Success {
		status := http.StatusUnprocessableEntity
		if strings.Contains(result.Error, "exceeds") {
			status = http.StatusRequestEntityTooLarge
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"error":    result.Error,
			"warnings": result.Warnings,
		})
		return
	}

	filename := convert.OutputFilename(header.Filename, result.Format)
	meta, _ := json.Marshal(result.Metadata)

	w.Header().Set("Content-Type", generator.ContentTypes[result.Format])
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	w.Header().Set("X-Conversion-Metadata", string(meta))
	if len(result.Warnings) > 0 {
		warn, _ := json.Marshal(result.Warnings)
		w.Header().Set("X-Conversion-Warnings", string(warn))
	}
	w.Write(result.Data)
}

// handleFormats lists the supported output formats.
func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	formats := make([]string, 0, len(generator.SupportedFormats))
	for f := range generator.SupportedFormats {
		formats = append(formats, f)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"formats": formats,
		"default": generator.FormatDocx,
	})
}

// optionsFromForm builds conversion options from form fields, starting
// from the defaults so absent fields keep their usual values.
func optionsFromForm(r *http.Request) (convert.Options, error) {
	opts := convert.DefaultOptions()

	if v := r.FormValue("format"); v != "" {
		opts.Format = strings.ToLower(v)
	}
	opts.Title = r.FormValue("title")
	opts.Author = r.FormValue("author")
	opts.Subject = r.FormValue("subject")

	var err error
	boolField := func(name string, dst *bool) {
		v := r.FormValue(name)
		if v == "" || err != nil {
			return
		}
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			err = fmt.Errorf("invalid %s value: %q", name, v)
			return
		}
		*dst = b
	}
	boolField("includeMetadata", &opts.IncludeMetadata)
	boolField("includePageNumbers", &opts.IncludePageNumbers)
	boolField("includeHeaders", &opts.IncludeHeaders)
	boolField("includeFooters", &opts.IncludeFooters)
	boolField("preserveFormatting", &opts.PreserveFormatting)
	boolField("simpleMode", &opts.SimpleMode)
	if err != nil {
		return opts, err
	}

	if v := r.FormValue("fontSize"); v != "" {
		n, perr := strconv.Atoi(v)
		if perr != nil {
			return opts, fmt.Errorf("invalid fontSize value: %q", v)
		}
		opts.FontSize = n
	}
	if v := r.FormValue("fontFamily"); v != "" {
		opts.FontFamily = v
	}
	if v := r.FormValue("lineSpacing"); v != "" {
		f, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			return opts, fmt.Errorf("invalid lineSpacing value: %q", v)
		}
		opts.LineSpacing = f
	}

	return opts, nil
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
