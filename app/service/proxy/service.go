// Package proxy is the browser-facing HTTP surface: the vendor endpoints the
// frontend used to reach through PHP, plus the call-control and audio bridge
// routes.
package proxy

import (
	"errors"
	"io"
	"time"

	"santacall/app/config"
	"santacall/app/flow"
	"santacall/app/service/bridge"
	"santacall/app/service/call"
	"santacall/app/service/settings"
	"santacall/app/service/vendor"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/samber/do"
)

var _ do.Shutdownable = (*Service)(nil)

type Service struct {
	cfg         *config.Config
	vendorSvc   *vendor.Service
	settingsSvc *settings.Service
	callSvc     *call.Service
	bridgeSvc   *bridge.Service

	app *fiber.App
}

func New(di *do.Injector) (*Service, error) {
	s := &Service{
		cfg:         do.MustInvoke[*config.Config](di),
		vendorSvc:   do.MustInvoke[*vendor.Service](di),
		settingsSvc: do.MustInvoke[*settings.Service](di),
		callSvc:     do.MustInvoke[*call.Service](di),
		bridgeSvc:   do.MustInvoke[*bridge.Service](di),
	}

	s.app = fiber.New(fiber.Config{
		BodyLimit:    16 * 1024 * 1024,
		ErrorHandler: errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.Server.CorsOrigins,
	}))

	api := s.app.Group("/api")

	api.Post("/speech-to-text", s.handleSpeechToText)
	api.Post("/chat", s.handleChat)
	api.Post("/text-to-speech", s.handleTextToSpeech)
	api.Get("/settings", s.handleGetSettings)
	api.Post("/settings", s.handleUpdateSettings)

	callGroup := api.Group("/call")
	callGroup.Post("/start", s.handleCallStart)
	callGroup.Post("/end", s.handleCallEnd)
	callGroup.Post("/unlock", s.handleCallUnlock)
	callGroup.Post("/frames", s.handleCallFrames)
	callGroup.Post("/audio-ended", s.handleCallAudioEnded)
	callGroup.Post("/video-ended", s.handleCallVideoEnded)
	callGroup.Get("/state", s.handleCallState)

	return s, nil
}

func (s *Service) Run() error {
	return s.app.Listen(s.cfg.Server.Listen)
}

func (s *Service) Shutdown() error {
	return s.app.ShutdownWithTimeout(5 * time.Second)
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func (s *Service) handleSpeechToText(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing audio file")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unreadable audio file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unreadable audio file")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/webm"
	}

	text, err := s.vendorSvc.Transcribe(c.Context(), data, contentType)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"text": text})
}

type chatRequest struct {
	Message string      `json:"message"`
	History []flow.Turn `json:"history"`
	Summary string      `json:"summary"`
	StepID  string      `json:"stepId"`
	Prompt  string      `json:"stepPrompt"`
	Facts   flow.Facts  `json:"facts"`
}

func (s *Service) handleChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid chat request")
	}
	if req.Message == "" {
		return fiber.NewError(fiber.StatusBadRequest, "message is required")
	}

	reply, err := s.vendorSvc.Converse(c.Context(), flow.ConverseRequest{
		Utterance: req.Message,
		History:   req.History,
		Summary:   req.Summary,
		StepID:    req.StepID,
		Prompt:    req.Prompt,
		Facts:     req.Facts,
	})
	if err != nil {
		return err
	}

	return c.JSON(reply)
}

type ttsRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

func (s *Service) handleTextToSpeech(c *fiber.Ctx) error {
	var req ttsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid tts request")
	}
	if req.Text == "" {
		return fiber.NewError(fiber.StatusBadRequest, "text is required")
	}

	audio, err := s.vendorSvc.Synthesize(c.Context(), req.Text, req.Voice)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "audio/mpeg")
	return c.Send(audio)
}

func (s *Service) handleGetSettings(c *fiber.Ctx) error {
	return c.JSON(s.settingsSvc.Get())
}

func (s *Service) handleUpdateSettings(c *fiber.Ctx) error {
	var req settings.Settings
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid settings")
	}

	updated, err := s.settingsSvc.Update(req)
	if err != nil {
		return err
	}

	return c.JSON(updated)
}

func (s *Service) handleCallStart(c *fiber.Ctx) error {
	s.callSvc.Unlock()
	s.callSvc.Start()

	return c.JSON(fiber.Map{"state": s.callSvc.State()})
}

func (s *Service) handleCallEnd(c *fiber.Ctx) error {
	s.callSvc.End()

	return c.JSON(fiber.Map{"state": s.callSvc.State()})
}

func (s *Service) handleCallUnlock(c *fiber.Ctx) error {
	s.callSvc.Unlock()

	return c.SendStatus(fiber.StatusNoContent)
}

type frameRequest struct {
	Data  []byte  `json:"data"`
	Level float64 `json:"level"`
	DurMs int64   `json:"durMs"`
}

func (s *Service) handleCallFrames(c *fiber.Ctx) error {
	var req frameRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid frame")
	}

	s.bridgeSvc.PushFrame(req.Data, req.Level, time.Duration(req.DurMs)*time.Millisecond)

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Service) handleCallAudioEnded(c *fiber.Ctx) error {
	s.bridgeSvc.AudioEnded()

	return c.SendStatus(fiber.StatusNoContent)
}

type videoEndedRequest struct {
	Video string `json:"video"`
}

func (s *Service) handleCallVideoEnded(c *fiber.Ctx) error {
	var req videoEndedRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid video report")
	}

	s.callSvc.VideoEnded(req.Video)

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Service) handleCallState(c *fiber.Ctx) error {
	return c.JSON(s.bridgeSvc.State())
}
