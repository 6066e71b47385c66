package grpcserver

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/subdarkdex/subdex-parachain/api/subdexpb"
	"github.com/subdarkdex/subdex-parachain/domain/assets"
	"github.com/subdarkdex/subdex-parachain/domain/xcmp"
	"github.com/subdarkdex/subdex-parachain/infra/journal"
	"github.com/subdarkdex/subdex-parachain/infra/store"
	"github.com/subdarkdex/subdex-parachain/runtime"
	"github.com/subdarkdex/subdex-parachain/service"
)

func devKey(seed byte) (ed25519.PrivateKey, assets.AccountID) {
	priv := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{seed}, ed25519.SeedSize))
	var acct assets.AccountID
	copy(acct[:], priv.Public().(ed25519.PublicKey))
	return priv, acct
}

func testGenesis(endowed ...assets.AccountID) runtime.Genesis {
	g := runtime.Genesis{
		Params: runtime.Params{
			Para:          100,
			MinimumPeriod: 1000,
			Limits:        xcmp.Limits{MaxOutboundPerChannel: 8, MaxUpward: 8, MaxInboundPerChannel: 8},
		},
		NextAssetID: 1,
	}
	for _, acct := range endowed {
		g.Balances = append(g.Balances, runtime.GenesisBalance{
			Account: acct,
			Asset:   assets.Main(),
			Amount:  1_000_000,
		})
	}
	return g
}

// startGateway serves a fresh node over bufconn and returns a connected
// client. The staged queue is shared with the node so InjectInbound
// flows into the next authored block.
func startGateway(t *testing.T, g runtime.Genesis) (subdexpb.NodeClient, *service.Node) {
	t.Helper()
	dir := t.TempDir()

	jnl, err := journal.Open(journal.Config{Dir: filepath.Join(dir, "journal"), SegmentSize: 1 << 20})
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	st, err := store.Open(filepath.Join(dir, "store"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		jnl.Close()
		st.Close()
	})

	staged := service.NewStagedQueue()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	node, err := service.NewNode(service.Options{
		Genesis: g,
		Journal: jnl,
		Store:   st,
		Inbound: staged,
		Logger:  quiet,
	})
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	srv := grpc.NewServer(grpc.ForceServerCodec(subdexpb.Codec{}))
	subdexpb.RegisterNodeServer(srv, NewServer(node, staged))

	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	if err != nil {
		t.Fatalf("dial bufnet: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return subdexpb.NewNodeClient(conn), node
}

func wantCode(t *testing.T, err error, want codes.Code) {
	t.Helper()
	if status.Code(err) != want {
		t.Fatalf("status = %v (%v), want %v", status.Code(err), err, want)
	}
}

func TestSubmitAuthorQueryRoundTrip(t *testing.T) {
	alicePriv, alice := devKey(1)
	_, bob := devKey(2)
	client, _ := startGateway(t, testGenesis(alice))
	ctx := context.Background()

	ext := runtime.Sign(alicePriv, 0, runtime.Transfer{Dest: bob, Asset: assets.Main(), Amount: 250})
	sub, err := client.SubmitExtrinsic(ctx, &subdexpb.SubmitExtrinsicRequest{Extrinsic: ext.EncodeToBytes()})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(sub.Hash) != 32 || sub.PoolSize != 1 {
		t.Fatalf("submit response = %x pool %d", sub.Hash, sub.PoolSize)
	}

	authored, err := client.AuthorBlock(ctx, &subdexpb.AuthorBlockRequest{TimestampMs: 1000})
	if err != nil {
		t.Fatalf("author: %v", err)
	}
	if authored.Height != 1 || authored.EventCount == 0 {
		t.Fatalf("authored height %d events %d", authored.Height, authored.EventCount)
	}

	head, err := client.GetHead(ctx, &subdexpb.GetHeadRequest{})
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.Height != 1 || !bytes.Equal(head.HeaderHash, authored.HeaderHash) {
		t.Fatalf("head %d hash %x, want 1 %x", head.Height, head.HeaderHash, authored.HeaderHash)
	}
	if head.TimestampMs != 1000 {
		t.Fatalf("head timestamp = %d", head.TimestampMs)
	}

	bal, err := client.GetBalance(ctx, &subdexpb.GetBalanceRequest{
		Account: hex.EncodeToString(bob[:]),
		Asset:   &subdexpb.Asset{Main: true},
	})
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal.Free != 250 || bal.Reserved != 0 {
		t.Fatalf("bob balance = %d/%d", bal.Free, bal.Reserved)
	}

	aliceBal, err := client.GetBalance(ctx, &subdexpb.GetBalanceRequest{
		Account: hex.EncodeToString(alice[:]),
		Asset:   &subdexpb.Asset{Main: true},
	})
	if err != nil {
		t.Fatalf("alice balance: %v", err)
	}
	if aliceBal.Nonce != 1 {
		t.Fatalf("alice nonce = %d, want 1", aliceBal.Nonce)
	}
}

func TestSubmitRejections(t *testing.T) {
	alicePriv, alice := devKey(1)
	_, bob := devKey(2)
	client, _ := startGateway(t, testGenesis(alice))
	ctx := context.Background()

	_, err := client.SubmitExtrinsic(ctx, &subdexpb.SubmitExtrinsicRequest{Extrinsic: []byte("junk")})
	wantCode(t, err, codes.InvalidArgument)

	ext := runtime.Sign(alicePriv, 0, runtime.Transfer{Dest: bob, Asset: assets.Main(), Amount: 1})
	if _, err := client.SubmitExtrinsic(ctx, &subdexpb.SubmitExtrinsicRequest{Extrinsic: ext.EncodeToBytes()}); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err = client.SubmitExtrinsic(ctx, &subdexpb.SubmitExtrinsicRequest{Extrinsic: ext.EncodeToBytes()})
	wantCode(t, err, codes.AlreadyExists)
}

func TestGetBookValidation(t *testing.T) {
	_, alice := devKey(1)
	client, _ := startGateway(t, testGenesis(alice))
	ctx := context.Background()

	_, err := client.GetBook(ctx, &subdexpb.GetBookRequest{
		Base:  &subdexpb.Asset{Main: true},
		Quote: &subdexpb.Asset{Id: 7},
	})
	wantCode(t, err, codes.NotFound)

	_, err = client.GetBook(ctx, &subdexpb.GetBookRequest{Quote: &subdexpb.Asset{Id: 7}})
	wantCode(t, err, codes.InvalidArgument)

	_, err = client.GetBook(ctx, &subdexpb.GetBookRequest{
		Base:  &subdexpb.Asset{Main: true, Id: 3},
		Quote: &subdexpb.Asset{Id: 7},
	})
	wantCode(t, err, codes.InvalidArgument)
}

func TestInjectInboundFlowsIntoNextBlock(t *testing.T) {
	_, alice := devKey(1)
	_, bob := devKey(2)
	client, _ := startGateway(t, testGenesis(alice))
	ctx := context.Background()

	inj, err := client.InjectInbound(ctx, &subdexpb.InjectInboundRequest{
		Messages: []*subdexpb.InboundMessage{{
			FromRelay: true,
			Seq:       1,
			Kind:      uint32(xcmp.KindDownTransferInto),
			Payload:   xcmp.TransferInto{Dest: bob, Amount: 75}.EncodePayload(),
		}},
	})
	if err != nil {
		t.Fatalf("inject: %v", err)
	}
	if inj.Queued != 1 {
		t.Fatalf("queued = %d", inj.Queued)
	}

	if _, err := client.AuthorBlock(ctx, &subdexpb.AuthorBlockRequest{TimestampMs: 1000}); err != nil {
		t.Fatalf("author: %v", err)
	}

	bal, err := client.GetBalance(ctx, &subdexpb.GetBalanceRequest{
		Account: hex.EncodeToString(bob[:]),
		Asset:   &subdexpb.Asset{Main: true},
	})
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal.Free != 75 {
		t.Fatalf("bob free = %d, want 75", bal.Free)
	}
}

func TestInjectInboundDisabled(t *testing.T) {
	srv := NewServer(nil, nil)
	_, err := srv.InjectInbound(context.Background(), &subdexpb.InjectInboundRequest{})
	wantCode(t, err, codes.FailedPrecondition)
}

func TestGetChannelMissing(t *testing.T) {
	_, alice := devKey(1)
	client, _ := startGateway(t, testGenesis(alice))

	_, err := client.GetChannel(context.Background(), &subdexpb.GetChannelRequest{Peer: 200})
	wantCode(t, err, codes.NotFound)
}

func TestGetHeadAtGenesis(t *testing.T) {
	_, alice := devKey(1)
	client, _ := startGateway(t, testGenesis(alice))

	head, err := client.GetHead(context.Background(), &subdexpb.GetHeadRequest{})
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.Height != 0 || head.HeaderHash != nil || head.StateRoot != nil {
		t.Fatalf("genesis head = %+v", head)
	}
}

func TestGetBalanceBadAccount(t *testing.T) {
	_, alice := devKey(1)
	client, _ := startGateway(t, testGenesis(alice))

	_, err := client.GetBalance(context.Background(), &subdexpb.GetBalanceRequest{
		Account: "0xnothex",
		Asset:   &subdexpb.Asset{Main: true},
	})
	wantCode(t, err, codes.InvalidArgument)
}
