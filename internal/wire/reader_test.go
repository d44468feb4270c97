package wire

import (
	"strings"
	"testing"
)

func TestReaderReadsCRLFFramedMessages(t *testing.T) {
	r := NewReader(strings.NewReader("PING :abc\r\nPONG :abc\r\n"))

	m1, err := r.ReadMessage()
	if err != nil || m1.Command != "PING" {
		t.Fatalf("ReadMessage() = %+v, %v", m1, err)
	}
	m2, err := r.ReadMessage()
	if err != nil || m2.Command != "PONG" {
		t.Fatalf("ReadMessage() = %+v, %v", m2, err)
	}
}

func TestReaderToleratesBareLF(t *testing.T) {
	r := NewReader(strings.NewReader("PING :abc\n"))
	m, err := r.ReadMessage()
	if err != nil || m.Command != "PING" {
		t.Fatalf("ReadMessage() = %+v, %v", m, err)
	}
}

func TestReaderSkipsBlankLines(t *testing.T) {
	r := NewReader(strings.NewReader("\r\n\r\nPING :abc\r\n"))
	m, err := r.ReadMessage()
	if err != nil || m.Command != "PING" {
		t.Fatalf("ReadMessage() = %+v, %v", m, err)
	}
}

func TestReaderRejectsOverlongLine(t *testing.T) {
	long := strings.Repeat("a", MaxLineLength+100)
	r := NewReader(strings.NewReader("PRIVMSG #chan :" + long + "\r\nPING :next\r\n"))

	_, err := r.ReadMessage()
	if err != ErrLineTooLong {
		t.Fatalf("err = %v, want ErrLineTooLong", err)
	}
}

func TestReaderReturnsEOFAtStreamEnd(t *testing.T) {
	r := NewReader(strings.NewReader(""))
	_, err := r.ReadMessage()
	if err == nil {
		t.Fatal("expected an error reading from an empty stream")
	}
}
