package audio

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

type blockingStream struct {
	started     int
	readStarted chan struct{}
	abortCalled chan struct{}
	closed      bool
}

func newBlockingStream() *blockingStream {
	return &blockingStream{
		readStarted: make(chan struct{}),
		abortCalled: make(chan struct{}),
	}
}

func (s *blockingStream) Start() error {
	s.started++
	return nil
}

func (s *blockingStream) Read() error {
	close(s.readStarted)
	<-s.abortCalled
	return errors.New("aborted")
}

func (s *blockingStream) Abort() error {
	select {
	case <-s.abortCalled:
	default:
		close(s.abortCalled)
	}
	return nil
}

func (s *blockingStream) Stop() error { return nil }

func (s *blockingStream) Close() error {
	s.closed = true
	return nil
}

type sampleStream struct {
	buffer []int16
}

func (s *sampleStream) Start() error { return nil }

func (s *sampleStream) Read() error {
	s.buffer[0] = 1
	s.buffer[1] = -2
	return nil
}

func (s *sampleStream) Abort() error { return nil }
func (s *sampleStream) Stop() error  { return nil }
func (s *sampleStream) Close() error { return nil }

func TestMicrophoneReadCanceled(t *testing.T) {
	stream := newBlockingStream()
	mic := newMicrophone(stream, make([]int16, 160))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		_, err := mic.Read(ctx)
		errCh <- err
	}()

	<-stream.readStarted
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Read should return after context cancellation")
	}

	select {
	case <-stream.abortCalled:
	default:
		t.Fatal("expected Abort to be called on context cancellation")
	}
	if stream.started != 1 {
		t.Fatalf("expected stream to be started lazily once, got %d", stream.started)
	}
}

func TestMicrophoneReadAfterClose(t *testing.T) {
	stream := newBlockingStream()
	mic := newMicrophone(stream, make([]int16, 160))

	errCh := make(chan error, 1)
	go func() {
		_, err := mic.Read(context.Background())
		errCh <- err
	}()

	<-stream.readStarted
	if err := mic.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, io.EOF) {
			t.Fatalf("expected EOF after close, got %v", err)
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Read should return after Close")
	}
	if !stream.closed {
		t.Fatal("expected stream to be closed")
	}
}

func TestMicrophoneEncodesLittleEndian(t *testing.T) {
	buffer := make([]int16, 2)
	mic := newMicrophone(&sampleStream{buffer: buffer}, buffer)

	data, err := mic.Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	want := []byte{0x01, 0x00, 0xfe, 0xff}
	if string(data) != string(want) {
		t.Fatalf("Read() = %v, want %v", data, want)
	}
}
