// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyenclave.
//
// go-keyenclave is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package rsa

import (
	"bytes"
	"context"

	"github.com/jeremyhahn/go-keyenclave/pkg/enclave"
)

// streamer adapts a cipher's update/finish calls to an enclave session.
// Implementations decide whether plaintext flows through immediately or
// is accumulated client-side before submission.
type streamer interface {
	update(ctx context.Context, data []byte) ([]byte, error)
	finish(ctx context.Context, data []byte) ([]byte, error)
}

// sessionStreamer forwards every chunk to the session as-is. Used for all
// decrypt-side operations and for encryption under paddings where the
// enclave handles framing itself.
type sessionStreamer struct {
	session enclave.Session
}

func (s *sessionStreamer) update(ctx context.Context, data []byte) ([]byte, error) {
	return s.session.Update(ctx, data)
}

func (s *sessionStreamer) finish(ctx context.Context, data []byte) ([]byte, error) {
	return s.session.Finish(ctx, data)
}

// zeroPadStreamer accumulates all encrypt input locally and submits one
// buffer at finish. Input shorter than the modulus is left-padded with
// zero bytes to exactly the modulus width; input of modulus length or
// longer is submitted unchanged and left to the enclave to accept or
// reject.
type zeroPadStreamer struct {
	session     enclave.Session
	modulusSize int
	buf         bytes.Buffer
}

func (z *zeroPadStreamer) update(ctx context.Context, data []byte) ([]byte, error) {
	z.buf.Write(data)
	return nil, nil
}

func (z *zeroPadStreamer) finish(ctx context.Context, data []byte) ([]byte, error) {
	z.buf.Write(data)
	return z.session.Finish(ctx, z.consume())
}

// consume drains the accumulator into a freshly allocated slice so the
// returned bytes never alias the buffer's internal storage.
func (z *zeroPadStreamer) consume() []byte {
	defer z.buf.Reset()

	n := z.buf.Len()
	if n >= z.modulusSize {
		out := make([]byte, n)
		copy(out, z.buf.Bytes())
		return out
	}

	out := make([]byte, z.modulusSize)
	copy(out[z.modulusSize-n:], z.buf.Bytes())
	return out
}
