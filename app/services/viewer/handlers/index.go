package handlers

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed views/index.html
var views embed.FS

type index struct {
	page []byte
}

// newIndex renders the page once since its inputs never change.
func newIndex(build string, nodeHost string) (*index, error) {
	tmpl, err := template.ParseFS(views, "views/index.html")
	if err != nil {
		return nil, fmt.Errorf("parsing index template: %w", err)
	}

	data := struct {
		Build    string
		NodeHost string
	}{
		Build:    build,
		NodeHost: nodeHost,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing index template: %w", err)
	}

	return &index{page: buf.Bytes()}, nil
}

func (ig *index) handler(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(ig.page)
	return err
}
