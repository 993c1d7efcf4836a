package queue

import (
	"log/slog"

	"santacall/app/capture"

	"github.com/samber/do"
)

const bufferSize = 16

var _ do.Shutdownable = (*Service)(nil)

// Service buffers finished utterances between the capture session and the
// call engine so endpointing never blocks on a slow transcription.
type Service struct {
	queue chan capture.Utterance
}

func New(_ *do.Injector) (*Service, error) {
	return &Service{
		queue: make(chan capture.Utterance, bufferSize),
	}, nil
}

func (s *Service) Add(u capture.Utterance) {
	defer func() {
		if r := recover(); r != nil {

		}
	}()

	select {
	case s.queue <- u:
	default:
		slog.Warn("utterance queue is full, dropping utterance",
			"bytes", len(u.Data))
	}
}

func (s *Service) Channel() <-chan capture.Utterance {
	return s.queue
}

func (s *Service) Shutdown() error {
	close(s.queue)

	return nil
}
