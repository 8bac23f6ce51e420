package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"flashquiz/internal/ingest"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleDocument loads an uploaded CSV deck and starts the quiz
func (h *Handler) handleDocument(c tele.Context) error {
	userID := c.Sender().ID
	msg := c.Message()
	if msg == nil || msg.Document == nil {
		return nil
	}
	doc := msg.Document

	h.logger.Info("Deck uploaded",
		zap.Int64("user_id", userID),
		zap.String("file_name", doc.FileName),
		zap.Int64("size", int64(doc.FileSize)),
	)

	if !strings.EqualFold(filepath.Ext(doc.FileName), ".csv") {
		return c.Send("⚠️ Please send a .csv file.")
	}
	if int64(doc.FileSize) > h.maxUpload {
		return c.Send(fmt.Sprintf("⚠️ The file is too large, the limit is %d KB.", h.maxUpload/1024))
	}

	data, err := h.fetch(&doc.File)
	if err != nil {
		if errors.Is(err, errTooLarge) {
			return c.Send(fmt.Sprintf("⚠️ The file is too large, the limit is %d KB.", h.maxUpload/1024))
		}
		h.logger.Error("Failed to download deck", zap.Error(err), zap.Int64("user_id", userID))
		return c.Send(failureText)
	}

	words, err := ingest.ParseCSV(bytes.NewReader(data))
	if err != nil {
		h.logger.Warn("Rejected deck", zap.Error(err), zap.Int64("user_id", userID))
		return c.Send(fmt.Sprintf("⚠️ Could not read the file: %v\nNothing to quiz.", err))
	}
	if len(words) == 0 {
		return c.Send("⚠️ The file has no words. Nothing to quiz.")
	}

	unlock := h.lockUser(userID)
	defer unlock()

	if _, err := h.quiz.StartDeck(context.Background(), userID, doc.FileName, words); err != nil {
		h.logger.Error("Failed to start deck", zap.Error(err), zap.Int64("user_id", userID))
		return c.Send(failureText)
	}

	if err := c.Send(fmt.Sprintf("✅ Loaded %d words from %s.", len(words), doc.FileName)); err != nil {
		return err
	}
	return h.sendQuestion(c, userID, "")
}

var errTooLarge = errors.New("file exceeds upload limit")

// fetch downloads a file, refusing anything above the upload limit
func (h *Handler) fetch(file *tele.File) ([]byte, error) {
	rc, err := h.download(file)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, h.maxUpload+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > h.maxUpload {
		return nil, errTooLarge
	}
	return data, nil
}
