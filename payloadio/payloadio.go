// Package payloadio converts sealed envelopes to and from the content
// addressed CAR representation a depot stores.
//
// Encoding chunks the envelope bytes into a UnixFS DAG with raw leaves and
// writes a single-root selective CAR into staging space. The DAG root is the
// digest a depot reservation must confirm, and the encoding is deterministic:
// the same envelope bytes always produce the same root. Decoding reverses the
// process and yields the exact envelope bytes.
package payloadio

import (
	"context"
	"io"

	"github.com/ipfs/go-blockservice"
	"github.com/ipfs/go-cid"
	"github.com/ipfs/go-cidutil"
	ds "github.com/ipfs/go-datastore"
	dss "github.com/ipfs/go-datastore/sync"
	bstore "github.com/ipfs/go-ipfs-blockstore"
	chunk "github.com/ipfs/go-ipfs-chunker"
	offline "github.com/ipfs/go-ipfs-exchange-offline"
	files "github.com/ipfs/go-ipfs-files"
	ipldformat "github.com/ipfs/go-ipld-format"
	"github.com/ipfs/go-merkledag"
	unixfile "github.com/ipfs/go-unixfs/file"
	"github.com/ipfs/go-unixfs/importer/balanced"
	"github.com/ipfs/go-unixfs/importer/helpers"
	"github.com/ipld/go-car"
	mh "github.com/multiformats/go-multihash"
	"golang.org/x/xerrors"

	"github.com/portus-project/go-asset-vault/filestore"
	"github.com/portus-project/go-asset-vault/shared"
)

const (
	payloadChunkSize     = 1 << 10
	payloadLinksPerLevel = 1024
)

var payloadHashFunction = uint64(mh.BLAKE2B_MIN + 31)

// EncodedPayload describes a staged CAR awaiting transfer to a depot.
type EncodedPayload struct {
	Root cid.Cid
	Path filestore.Path
	Size uint64
}

// PayloadIO converts between envelope bytes and staged CAR files.
type PayloadIO interface {
	EncodePayload(ctx context.Context, r io.Reader) (EncodedPayload, error)
	DecodePayload(ctx context.Context, r io.Reader) (cid.Cid, []byte, error)
}

type payloadIO struct {
	staging filestore.FileStore
}

// NewPayloadIO creates a PayloadIO staging its CAR files in the given store.
func NewPayloadIO(staging filestore.FileStore) PayloadIO {
	return &payloadIO{staging: staging}
}

func (pio *payloadIO) EncodePayload(ctx context.Context, r io.Reader) (EncodedPayload, error) {
	bs := newMemoryBlockstore()
	root, err := importPayload(ctx, bs, r)
	if err != nil {
		return EncodedPayload{}, xerrors.Errorf("importing payload: %w", err)
	}
	f, err := pio.staging.CreateTemp()
	if err != nil {
		return EncodedPayload{}, xerrors.Errorf("creating staging file: %w", err)
	}
	sc := car.NewSelectiveCar(ctx, bs, []car.Dag{{
		Root:     root,
		Selector: shared.AllSelector(),
	}}, car.TraverseLinksOnlyOnce())
	if err := sc.Write(f); err != nil {
		_ = f.Close()
		_ = pio.staging.Delete(f.Path())
		return EncodedPayload{}, xerrors.Errorf("writing staged car: %w", err)
	}
	size := f.Size()
	if err := f.Close(); err != nil {
		return EncodedPayload{}, err
	}
	return EncodedPayload{Root: root, Path: f.Path(), Size: uint64(size)}, nil
}

func (pio *payloadIO) DecodePayload(ctx context.Context, r io.Reader) (cid.Cid, []byte, error) {
	return Decode(ctx, r)
}

// Decode reads a payload CAR back into the exact envelope bytes it was
// encoded from. It needs no staging space, so downloaders use it directly.
func Decode(ctx context.Context, r io.Reader) (cid.Cid, []byte, error) {
	bs := newMemoryBlockstore()
	header, err := car.LoadCar(ctx, bs, r)
	if err != nil {
		return cid.Undef, nil, xerrors.Errorf("loading payload car: %w", err)
	}
	if len(header.Roots) != 1 {
		return cid.Undef, nil, xerrors.Errorf("payload car has %d roots, expected 1", len(header.Roots))
	}
	root := header.Roots[0]
	dagService := merkledag.NewDAGService(blockservice.New(bs, offline.Exchange(bs)))
	nd, err := dagService.Get(ctx, root)
	if err != nil {
		return cid.Undef, nil, xerrors.Errorf("loading payload root %s: %w", root, err)
	}
	n, err := unixfile.NewUnixfsFile(ctx, dagService, nd)
	if err != nil {
		return cid.Undef, nil, xerrors.Errorf("reading unixfs dag: %w", err)
	}
	f, ok := n.(files.File)
	if !ok {
		return cid.Undef, nil, xerrors.Errorf("payload root %s is not a unixfs file", root)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return cid.Undef, nil, xerrors.Errorf("reading payload bytes: %w", err)
	}
	return root, data, nil
}

func importPayload(ctx context.Context, bs bstore.Blockstore, r io.Reader) (cid.Cid, error) {
	dagService := merkledag.NewDAGService(blockservice.New(bs, offline.Exchange(bs)))
	bufferedDS := ipldformat.NewBufferedDAG(ctx, dagService)

	prefix, err := merkledag.PrefixForCidVersion(1)
	if err != nil {
		return cid.Undef, err
	}
	prefix.MhType = payloadHashFunction

	params := helpers.DagBuilderParams{
		Maxlinks:  payloadLinksPerLevel,
		RawLeaves: true,
		CidBuilder: cidutil.InlineBuilder{
			Builder: prefix,
			Limit:   126,
		},
		Dagserv: bufferedDS,
	}
	db, err := params.New(chunk.NewSizeSplitter(r, int64(payloadChunkSize)))
	if err != nil {
		return cid.Undef, err
	}
	nd, err := balanced.Layout(db)
	if err != nil {
		return cid.Undef, err
	}
	if err := bufferedDS.Commit(); err != nil {
		return cid.Undef, err
	}
	return nd.Cid(), nil
}

func newMemoryBlockstore() bstore.Blockstore {
	return bstore.NewBlockstore(dss.MutexWrap(ds.NewMapDatastore()))
}
