// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jeranaias/gemchat-tui/internal/stream"
)

// EventCallback receives each classified stream event in arrival order.
// It is called synchronously from the reading goroutine.
type EventCallback func(ev stream.Event)

// =============================================================================
// STREAMING CHAT
// =============================================================================

// SendMessage posts one user turn and decodes the streamed reply, invoking
// the callback per event. It returns nil on clean stream end, ctx.Err() when
// the caller cancelled, and a typed error for transport failures.
//
// The reply body is consumed chunk by chunk through the frame decoder so
// that frame boundaries falling across reads are handled.
func (c *Client) SendMessage(ctx context.Context, chatReq ChatRequest, callback EventCallback) error {
	if chatReq.Model == "" {
		chatReq.Model = c.config.DefaultModel
	}

	body, contentType, err := encodeChatForm(chatReq)
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/chat", body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	// Streaming replies have no sensible overall deadline; cancellation
	// comes through the context.
	streamClient := &http.Client{}

	resp, err := streamClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return mapTransportError(err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	return c.consumeStream(ctx, resp.Body, callback)
}

// consumeStream pumps the reply body through decoder and interpreter.
func (c *Client) consumeStream(ctx context.Context, body io.Reader, callback EventCallback) error {
	decoder := stream.NewFrameDecoder()
	interp := stream.NewInterpreter()
	buf := make([]byte, 4096)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := body.Read(buf)
		if n > 0 {
			for _, payload := range decoder.Push(string(buf[:n])) {
				if ev, ok := interp.Interpret(payload); ok {
					callback(ev)
				}
			}
		}
		if err == io.EOF {
			// Clean completion: a trailing partial frame is unusable
			// and dropped without error.
			decoder.Close()
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &ClientError{Type: ErrTypeStream, Message: "reply stream interrupted", Cause: err}
		}
	}
}

// encodeChatForm builds the multipart form the chat endpoint expects.
func encodeChatForm(chatReq ChatRequest) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"message":         chatReq.Message,
		"conversation_id": chatReq.ConversationID,
		"model":           chatReq.Model,
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to encode request", Cause: err}
		}
	}

	if len(chatReq.Files) > 0 {
		files, err := json.Marshal(chatReq.Files)
		if err != nil {
			return nil, "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to encode attachments", Cause: err}
		}
		if err := w.WriteField("pre_uploaded_files", string(files)); err != nil {
			return nil, "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to encode attachments", Cause: err}
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to encode request", Cause: err}
	}
	return &buf, w.FormDataContentType(), nil
}

// =============================================================================
// UPLOAD
// =============================================================================

// UploadFile sends one local file to the upload endpoint and returns the
// server's descriptor for it.
func (c *Client) UploadFile(ctx context.Context, path string) (*UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "cannot open file", Cause: err}
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to encode upload", Cause: err}
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to read file", Cause: err}
	}
	if err := w.Close(); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to encode upload", Cause: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, mapTransportError(err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode upload response", Cause: err}
	}
	return &result, nil
}
