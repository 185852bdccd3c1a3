package server

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mgpai22/scenesage/internal/analyze"
	"github.com/mgpai22/scenesage/internal/config"
	"github.com/mgpai22/scenesage/internal/describe"
	"github.com/mgpai22/scenesage/internal/logging"
	"github.com/mgpai22/scenesage/internal/pipeline"
	"github.com/mgpai22/scenesage/internal/scene"
	"github.com/mgpai22/scenesage/internal/subtitle"
)

type pageData struct {
	Config    *config.Config
	Filename  string
	Error     string
	Scenes    []scene.AnalyzedScene
	JSON      string
	RequestID string
}

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index", pageData{Config: s.cfg})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) analyzeForm(c *gin.Context) {
	res, err := s.analyze(c)
	data := pageData{
		Config:    res.cfg,
		Filename:  res.filename,
		RequestID: c.GetString(requestIDKey),
	}
	if err != nil {
		data.Error = err.Error()
		c.HTML(statusFor(err), "index", data)
		return
	}

	data.Scenes = res.scenes
	data.JSON = string(res.body)
	c.HTML(http.StatusOK, "index", data)
}

func (s *Server) analyzeAPI(c *gin.Context) {
	res, err := s.analyze(c)
	if err != nil {
		c.JSON(statusFor(err), gin.H{
			"error":      err.Error(),
			"request_id": c.GetString(requestIDKey),
		})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", res.body)
}

type result struct {
	// effective configuration for the request
	cfg      *config.Config
	filename string
	scenes   []scene.AnalyzedScene
	// scenes as written by pipeline.Encode
	body []byte
}

// analyze runs one upload through the pipeline.
func (s *Server) analyze(c *gin.Context) (result, error) {
	res := result{cfg: s.cfg.Clone()}
	cfg := res.cfg

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return res, err
		}
		return res, config.Invalid("file", "", "a subtitle or video file is required")
	}
	res.filename = fh.Filename

	if err := applyForm(c, cfg); err != nil {
		return res, err
	}
	if err := cfg.Validate(); err != nil {
		return res, err
	}

	ctx := c.Request.Context()
	client, err := s.newClient(ctx, cfg)
	if err != nil {
		return res, err
	}

	logger := &logging.Logger{SugaredLogger: s.logger.With("request_id", c.GetString(requestIDKey))}
	runner, err := pipeline.New(cfg, client, logger)
	if err != nil {
		return res, err
	}

	f, err := fh.Open()
	if err != nil {
		return res, err
	}
	defer func() {
		_ = f.Close()
	}()

	captions, err := pipeline.LoadReader(ctx, fh.Filename, f, s.proc)
	if err != nil {
		return res, err
	}

	scenes, err := runner.Run(ctx, captions)
	if err != nil {
		return res, err
	}

	var buf bytes.Buffer
	if err := pipeline.Encode(&buf, scenes); err != nil {
		return res, err
	}
	res.scenes = scenes
	res.body = buf.Bytes()
	return res, nil
}

// applyForm copies non-empty form fields over cfg.
func applyForm(c *gin.Context, cfg *config.Config) error {
	if model := strings.TrimSpace(c.PostForm("model")); model != "" {
		cfg.Model.Name = model
	}
	if key := strings.TrimSpace(c.PostForm("api_key")); key != "" {
		cfg.SetAPIKey(key)
	}

	floats := []struct {
		field string
		dst   *float64
	}{
		{"temperature", &cfg.Model.Temperature},
		{"top_p", &cfg.Model.TopP},
		{"frequency_penalty", &cfg.Model.FrequencyPenalty},
		{"presence_penalty", &cfg.Model.PresencePenalty},
	}
	for _, f := range floats {
		if err := formFloat(c, f.field, f.dst); err != nil {
			return err
		}
	}

	ints := []struct {
		field string
		dst   *int
	}{
		{"max_tokens", &cfg.Model.MaxTokens},
		{"min_pause", &cfg.Scenes.MinPause},
		{"chunk_size", &cfg.Scenes.ChunkSize},
		{"overlap", &cfg.Scenes.Overlap},
	}
	for _, f := range ints {
		if err := formInt(c, f.field, f.dst); err != nil {
			return err
		}
	}
	return nil
}

func formFloat(c *gin.Context, field string, dst *float64) error {
	v := strings.TrimSpace(c.PostForm(field))
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return config.Invalid(field, v, "must be a number")
	}
	*dst = f
	return nil
}

func formInt(c *gin.Context, field string, dst *int) error {
	v := strings.TrimSpace(c.PostForm(field))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return config.Invalid(field, v, "must be a whole number")
	}
	*dst = n
	return nil
}

func statusFor(err error) int {
	var (
		tooLarge *http.MaxBytesError
		sceneErr *analyze.SceneError
	)
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, config.ErrInvalid),
		errors.Is(err, scene.ErrNoCaptions),
		errors.Is(err, pipeline.ErrInput),
		errors.Is(err, subtitle.ErrMalformed),
		errors.Is(err, subtitle.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, describe.ErrAnalysis), errors.As(err, &sceneErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
