package handler

import (
	"github.com/gs2core/server/internal/protocol"
	"github.com/gs2core/server/internal/session"
)

// fileChunkSize caps a single PLO_RAWDATA chunk queued onto the session's
// file-send queue (§4.1 Outbound: "sendFile chunks a file... interleaved
// with other traffic").
const fileChunkSize = 4096

// HandleWantFile implements PLI_WANTFILE: resolve name through the
// catalogue and either queue it for transfer or report the miss (§7
// Resource miss). It never answers that the client's copy is current; a
// found file is always sent.
func HandleWantFile(d *Deps) protocol.HandlerFunc {
	return func(s any, r *protocol.Reader) bool {
		sess := s.(*session.Session)
		name := r.ReadGString()

		path := d.Catalog.Find(name)
		if path == "" {
			if canon := d.Catalog.FileExistsAs(name); canon != "" {
				path = d.Catalog.Find(canon)
				name = canon
			}
		}
		if path == "" {
			sess.Send(buildFileSendFailed(sess.Version.Codepage, name))
			return true
		}

		sendFile(d, sess, name)
		return true
	}
}

// HandleFileBrowserStart implements PLI_RC_FILEBROWSER_START: marks the RC
// session as mid-browse (IsUsingFileBrowser). Nothing else in this core
// reads the flag; the other filebrowser traversal codes are acknowledged
// as no-ops.
func HandleFileBrowserStart(d *Deps) protocol.HandlerFunc {
	return func(s any, r *protocol.Reader) bool {
		s.(*session.Session).IsUsingFileBrowser.Store(true)
		return true
	}
}

// HandleFileBrowserEnd implements PLI_RC_FILEBROWSER_END.
func HandleFileBrowserEnd(d *Deps) protocol.HandlerFunc {
	return func(s any, r *protocol.Reader) bool {
		s.(*session.Session).IsUsingFileBrowser.Store(false)
		return true
	}
}

// sendFile chunks the catalogued file's bytes into fileChunkSize frames and
// queues them on the session's dedicated file-send queue, which writeLoop
// only drains once OutQueue is empty — so a large transfer is interleaved
// with, rather than displacing, real-time traffic (§3 Data Model
// "file-send queue", §4.1 Outbound). The start-transfer header itself goes
// out on the ordinary OutQueue path since it's small and announces the
// transfer rather than carrying its body.
func sendFile(d *Deps, sess *session.Session, name string) {
	data := d.Catalog.Load(name)
	if data == nil {
		sess.Send(buildFileSendFailed(sess.Version.Codepage, name))
		return
	}

	header := protocol.NewWriter(protocol.PLO_FILESTARTTRANSFER, sess.Version.Codepage)
	header.WriteGString(name)
	header.WriteGInt4(uint32(len(data)))
	sess.Send(header.Finish(true))

	for off := 0; off < len(data); off += fileChunkSize {
		end := off + fileChunkSize
		if end > len(data) {
			end = len(data)
		}
		chunk := protocol.NewWriter(protocol.PLO_RAWDATA, sess.Version.Codepage)
		chunk.WriteRaw(data[off:end])
		if !sess.QueueFileChunk(chunk.Finish(false)) {
			return
		}
	}
}
