// Package server exposes a read-only review API over the open dataset.
package server

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"particle-annotator/internal/app"
	"particle-annotator/internal/version"
)

// ImageEntry is one row of GET /api/images.
type ImageEntry struct {
	ID          int    `json:"id"`
	FileName    string `json:"file_name"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Marked      bool   `json:"marked"`
	Annotations int    `json:"annotations"`
}

// AnnotationEntry is one row of GET /api/images/{id}/annotations.
type AnnotationEntry struct {
	ID       int     `json:"id"`
	Label    int     `json:"category_id"`
	Class    string  `json:"category"`
	Vertices int     `json:"vertices"`
	Area     float64 `json:"area"`
}

// Server serves the dataset held by an app.State.
type Server struct {
	state        *app.State
	logger       *zap.Logger
	previewWidth int
	srv          *fasthttp.Server
}

// New returns a server over state. Previews default to previewWidth pixels
// square.
func New(state *app.State, previewWidth int, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{state: state, logger: logger, previewWidth: previewWidth}
	s.srv = &fasthttp.Server{
		Handler:      s.Handler,
		Name:         version.ServerName(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving on addr until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("Serving", zap.String("addr", addr))
	return s.srv.ListenAndServe(addr)
}

// Shutdown stops the listener and waits for open requests.
func (s *Server) Shutdown() error {
	return s.srv.Shutdown()
}

// Handler routes one request.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	defer func() {
		s.logger.Debug("Request",
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("path", ctx.Path()),
			zap.Int("status", ctx.Response.StatusCode()),
			zap.Duration("took", time.Since(start)))
	}()

	if !ctx.IsGet() {
		ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.Trim(string(ctx.Path()), "/"), "/")
	if len(parts) < 2 || parts[0] != "api" {
		ctx.Error("not found", fasthttp.StatusNotFound)
		return
	}

	switch {
	case len(parts) == 2 && parts[1] == "images":
		s.images(ctx)
	case len(parts) == 2 && parts[1] == "categories":
		writeJSON(ctx, s.state.Categories())
	case len(parts) == 2 && parts[1] == "dataset":
		s.dataset(ctx)
	case len(parts) == 4 && parts[1] == "images":
		id, err := strconv.Atoi(parts[2])
		if err != nil {
			ctx.Error("bad image id", fasthttp.StatusBadRequest)
			return
		}
		switch parts[3] {
		case "annotations":
			s.annotations(ctx, id)
		case "preview.png":
			s.preview(ctx, id)
		default:
			ctx.Error("not found", fasthttp.StatusNotFound)
		}
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

func (s *Server) images(ctx *fasthttp.RequestCtx) {
	images := s.state.Images()
	out := make([]ImageEntry, 0, len(images))
	for _, im := range images {
		out = append(out, ImageEntry{
			ID:          im.ID,
			FileName:    im.FileName,
			Width:       im.Width,
			Height:      im.Height,
			Marked:      im.Marked,
			Annotations: len(s.state.Annotations(im.ID)),
		})
	}
	writeJSON(ctx, out)
}

func (s *Server) annotations(ctx *fasthttp.RequestCtx, id int) {
	if !s.hasImage(id) {
		ctx.Error("no such image", fasthttp.StatusNotFound)
		return
	}
	infos := s.state.Annotations(id)
	out := make([]AnnotationEntry, 0, len(infos))
	for _, a := range infos {
		out = append(out, AnnotationEntry{
			ID:       a.ID,
			Label:    a.Label,
			Class:    a.Class,
			Vertices: a.Vertices,
			Area:     a.Area,
		})
	}
	writeJSON(ctx, out)
}

func (s *Server) dataset(ctx *fasthttp.RequestCtx) {
	subset := false
	switch string(ctx.QueryArgs().Peek("subset")) {
	case "", "0", "false":
	default:
		subset = true
	}
	doc, err := s.state.Export(subset)
	if err != nil {
		s.logger.Warn("Export failed", zap.Error(err))
		ctx.Error(err.Error(), fasthttp.StatusConflict)
		return
	}
	var buf bytes.Buffer
	if err := doc.Encode(&buf); err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(buf.Bytes())
}

func (s *Server) preview(ctx *fasthttp.RequestCtx, id int) {
	if !s.hasImage(id) {
		ctx.Error("no such image", fasthttp.StatusNotFound)
		return
	}
	w := ctx.QueryArgs().GetUintOrZero("w")
	h := ctx.QueryArgs().GetUintOrZero("h")
	if w <= 0 {
		w = s.previewWidth
	}
	if h <= 0 {
		h = w
	}

	img, err := s.state.Preview(id, w, h)
	if err != nil {
		s.logger.Warn("Preview failed", zap.Int("image", id), zap.Error(err))
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("image/png")
	ctx.SetBody(buf.Bytes())
}

func (s *Server) hasImage(id int) bool {
	for _, im := range s.state.Images() {
		if im.ID == id {
			return true
		}
	}
	return false
}

func writeJSON(ctx *fasthttp.RequestCtx, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(data)
}
