// Package hepio reads and writes self-describing containers of histograms
// and columnar event trees.
//
// # Quick Start
//
// Writing:
//
//	f, _ := hepio.Create(ctx, "events.root", hepio.WithCompression(hepio.CompressionZSTD+3))
//	defer f.Close()
//
//	h, _ := hist.NewH1F("h", "px", 100, -4, 4)
//	h.FillRandom("gaus", 10000, nil)
//	f.Put(ctx, "h", "px", h)
//
//	t := tree.New(f, "tree", "events")
//	var evt event.Event
//	t.Branch("events", &evt)
//	for ... { t.Fill(ctx) }
//	t.Write(ctx)
//
// Reading:
//
//	f, _ := hepio.Open(ctx, "events.root")
//	t, _ := tree.Open(ctx, f, "tree")
//	r := tree.NewReader(t)
//	v := tree.NewValue[event.Event](r, "events")
//	for r.Next(ctx) {
//	    _ = v.Get().Particles
//	}
//
// # Layout
//
// A file is a header, a sequence of checksummed and compressed records and
// a directory of keys. Keys name objects ("h", "tree") and carry a cycle
// that grows each time the same name is written. "name;2" selects a cycle,
// a bare name the latest one. Class layouts of every type stored in a tree
// are kept in the StreamerInfo key so readers can check their Go types
// against what was written.
//
// # Storage
//
// Create and Open work on local paths. CreateBlob and OpenBlob accept any
// blobstore.BlobStore, including the S3 and MinIO stores.
package hepio
