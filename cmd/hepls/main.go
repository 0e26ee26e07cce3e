// Command hepls lists the contents of hepio files, like rootls.
//
//	hepls [-t] [-json] file...
//	hepls -s3 bucket [-endpoint url] name...
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"

	"github.com/hupe1980/hepio"
	"github.com/hupe1980/hepio/blobstore"
	"github.com/hupe1980/hepio/blobstore/s3"
	"github.com/hupe1980/hepio/hist"
	"github.com/hupe1980/hepio/streamer"
	"github.com/hupe1980/hepio/tree"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

type config struct {
	trees    bool
	json     bool
	bucket   string
	endpoint string
	cache    int64
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("hepls", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var cfg config
	fs.BoolVar(&cfg.trees, "t", false, "show branches and leaves of trees")
	fs.BoolVar(&cfg.json, "json", false, "print JSON")
	fs.StringVar(&cfg.bucket, "s3", "", "read files from this S3 bucket")
	fs.StringVar(&cfg.endpoint, "endpoint", "", "S3 compatible endpoint URL")
	fs.Int64Var(&cfg.cache, "cache", 0, "block cache size in bytes for remote reads")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: hepls [-t] [-json] [-s3 bucket] file...")
		return 2
	}

	var store blobstore.BlobStore
	if cfg.bucket != "" {
		var optFns []func(*s3.Options)
		if cfg.endpoint != "" {
			optFns = append(optFns, s3.WithEndpoint(cfg.endpoint))
		}
		s, err := s3.New(ctx, cfg.bucket, optFns...)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		store = s
	}

	var files []fileInfo
	for _, name := range fs.Args() {
		info, err := list(ctx, store, name, cfg)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		files = append(files, info)
	}

	if cfg.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(files); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}
	for _, info := range files {
		printText(stdout, info, cfg.trees)
	}
	return 0
}

type fileInfo struct {
	Name        string    `json:"name"`
	UUID        string    `json:"uuid"`
	Created     time.Time `json:"created"`
	Compression int       `json:"compression"`
	Size        int64     `json:"size"`
	Keys        []keyInfo `json:"keys"`
}

type keyInfo struct {
	Name   string    `json:"name"`
	Cycle  int       `json:"cycle"`
	Title  string    `json:"title,omitempty"`
	Class  string    `json:"class"`
	Bytes  uint32    `json:"bytes"`
	Datime time.Time `json:"datime"`
	Tree   *treeInfo `json:"tree,omitempty"`
	Hist   *histInfo `json:"hist,omitempty"`
	Layout []string  `json:"layout,omitempty"`
}

type treeInfo struct {
	Entries  int64        `json:"entries"`
	Branches []branchInfo `json:"branches"`
}

type branchInfo struct {
	Name     string     `json:"name"`
	Class    string     `json:"class"`
	TotBytes int64      `json:"tot_bytes"`
	ZipBytes int64      `json:"zip_bytes"`
	Leaves   []leafInfo `json:"leaves"`
}

type leafInfo struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Kind    string `json:"kind"`
	Baskets int    `json:"baskets"`
}

type histInfo struct {
	NBins   int     `json:"nbins"`
	XMin    float64 `json:"xmin"`
	XMax    float64 `json:"xmax"`
	Entries int64   `json:"entries"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
}

func list(ctx context.Context, store blobstore.BlobStore, name string, cfg config) (fileInfo, error) {
	var (
		f   *hepio.File
		err error
	)
	if store != nil {
		f, err = hepio.OpenBlob(ctx, store, name, hepio.WithCache(cfg.cache))
	} else {
		f, err = hepio.Open(ctx, name)
	}
	if err != nil {
		return fileInfo{}, err
	}
	defer f.Close()

	info := fileInfo{
		Name:        f.Name(),
		UUID:        f.UUID().String(),
		Created:     f.Created(),
		Compression: f.Compression(),
		Size:        f.Size(),
	}
	infos := f.StreamerInfos()

	for _, k := range f.Keys() {
		ki := keyInfo{
			Name:   k.Name,
			Cycle:  k.Cycle,
			Title:  k.Title,
			Class:  k.Class,
			Bytes:  k.ObjLen,
			Datime: k.Datime,
		}
		switch k.Class {
		case tree.ClassTree:
			if cfg.trees {
				ti, err := describeTree(ctx, f, k.String())
				if err != nil {
					return fileInfo{}, err
				}
				ki.Tree = ti
			}
		case hist.ClassH1F:
			var h hist.H1F
			if err := f.Get(ctx, k.String(), &h); err != nil {
				return fileInfo{}, err
			}
			ki.Hist = &histInfo{
				NBins:   h.NBins(),
				XMin:    h.XMin(),
				XMax:    h.XMax(),
				Entries: h.Entries(),
				Mean:    h.Mean(),
				StdDev:  h.StdDev(),
			}
		case hepio.ClassStreamerInfo:
			ki.Layout = layouts(infos)
		}
		info.Keys = append(info.Keys, ki)
	}
	return info, nil
}

func describeTree(ctx context.Context, f *hepio.File, namecycle string) (*treeInfo, error) {
	t, err := tree.Open(ctx, f, namecycle)
	if err != nil {
		return nil, err
	}
	ti := &treeInfo{Entries: t.Entries()}
	for _, b := range t.Branches() {
		bi := branchInfo{
			Name:     b.Name(),
			Class:    b.Class(),
			TotBytes: b.TotBytes(),
			ZipBytes: b.ZipBytes(),
		}
		for _, l := range b.Leaves() {
			bi.Leaves = append(bi.Leaves, leafInfo{
				Name:    l.Name(),
				Type:    l.TypeName(),
				Kind:    l.Kind().String(),
				Baskets: l.Baskets(),
			})
		}
		ti.Branches = append(ti.Branches, bi)
	}
	return ti, nil
}

func layouts(infos map[string]streamer.Info) []string {
	out := make([]string, 0, len(infos))
	for _, info := range infos {
		out = append(out, info.String())
	}
	sort.Strings(out)
	return out
}

func printText(w io.Writer, info fileInfo, trees bool) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "%s\t(%d bytes, compression %d, uuid %s)\n", info.Name, info.Size, info.Compression, info.UUID)
	for _, k := range info.Keys {
		fmt.Fprintf(tw, "%s\t%s;%d\t%q\t%s\n", k.Class, k.Name, k.Cycle, k.Title, k.Datime.Format(time.DateTime))
		if k.Hist != nil {
			fmt.Fprintf(tw, "\t  entries=%d\tmean=%.4g\tstd=%.4g\n", k.Hist.Entries, k.Hist.Mean, k.Hist.StdDev)
		}
		for _, l := range k.Layout {
			fmt.Fprintf(tw, "\t  %s\n", l)
		}
		if !trees || k.Tree == nil {
			continue
		}
		fmt.Fprintf(tw, "\t  entries=%d\n", k.Tree.Entries)
		for _, b := range k.Tree.Branches {
			fmt.Fprintf(tw, "\t  %s\t%s\ttot=%d zip=%d\n", b.Name, b.Class, b.TotBytes, b.ZipBytes)
			for _, l := range b.Leaves {
				fmt.Fprintf(tw, "\t    %s\t%s\t%s baskets=%d\n", l.Name, l.Type, l.Kind, l.Baskets)
			}
		}
	}
}
