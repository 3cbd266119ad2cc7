package handler

import (
	"net"
	"testing"

	"go.uber.org/zap"

	"github.com/gs2core/server/internal/protocol"
	"github.com/gs2core/server/internal/registry"
	"github.com/gs2core/server/internal/session"
)

func newWiringTestSession(t *testing.T) *session.Session {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close(); server.Close() })
	sess := session.New(1, server, 4, 4, zap.NewNop())
	sess.Level = "start.nw"
	return sess
}

func TestHandleThrowCarriedRecordsCarriedNPC(t *testing.T) {
	d := &Deps{Registry: registry.New()}
	sess := newWiringTestSession(t)
	d.Registry.Add(sess)
	d.Registry.Join(sess.Level, sess)

	w := protocol.NewWriter(protocol.PLI_THROWCARRIED, protocol.CodepageASCII)
	w.WriteGInt4(42)
	rec := w.Finish(false)

	ok := HandleThrowCarried(d)(sess, protocol.NewReader(rec, protocol.CodepageASCII))
	if !ok {
		t.Fatalf("handler returned false")
	}
	if got := sess.CarriedNPCID.Load(); got != 42 {
		t.Fatalf("CarriedNPCID = %d, want 42", got)
	}
	if !sess.ThrowCarried.Load() {
		t.Fatalf("ThrowCarried should be true after a throw")
	}
}

func TestFileBrowserStartEndTogglesSessionFlag(t *testing.T) {
	d := &Deps{}
	sess := newWiringTestSession(t)

	HandleFileBrowserStart(d)(sess, nil)
	if !sess.IsUsingFileBrowser.Load() {
		t.Fatalf("IsUsingFileBrowser should be true after FILEBROWSER_START")
	}
	HandleFileBrowserEnd(d)(sess, nil)
	if sess.IsUsingFileBrowser.Load() {
		t.Fatalf("IsUsingFileBrowser should be false after FILEBROWSER_END")
	}
}
