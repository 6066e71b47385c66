// Package grpcserver exposes the node over gRPC: the wire contract
// lives in api/subdexpb, the behavior in service. This package only
// converts and maps errors onto status codes.
package grpcserver

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/subdarkdex/subdex-parachain/api/subdexpb"
	"github.com/subdarkdex/subdex-parachain/domain/assets"
	"github.com/subdarkdex/subdex-parachain/domain/orderbook"
	"github.com/subdarkdex/subdex-parachain/domain/xcmp"
	"github.com/subdarkdex/subdex-parachain/runtime"
	"github.com/subdarkdex/subdex-parachain/service"
)

// Server adapts the node to the subdex.v1.Node contract.
type Server struct {
	node *service.Node
	// staged receives InjectInbound messages; nil disables the RPC,
	// which is how a production collator build runs.
	staged *service.StagedQueue
}

func NewServer(node *service.Node, staged *service.StagedQueue) *Server {
	return &Server{node: node, staged: staged}
}

func (s *Server) SubmitExtrinsic(ctx context.Context, req *subdexpb.SubmitExtrinsicRequest) (*subdexpb.SubmitExtrinsicResponse, error) {
	hash, size, err := s.node.SubmitExtrinsic(req.Extrinsic)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBadExtrinsic):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		case errors.Is(err, service.ErrDuplicate):
			return nil, status.Error(codes.AlreadyExists, err.Error())
		case errors.Is(err, service.ErrPoolFull):
			return nil, status.Error(codes.ResourceExhausted, err.Error())
		}
		return nil, status.Errorf(codes.Internal, "submit failed: %v", err)
	}
	return &subdexpb.SubmitExtrinsicResponse{Hash: hash[:], PoolSize: uint32(size)}, nil
}

func (s *Server) AuthorBlock(ctx context.Context, req *subdexpb.AuthorBlockRequest) (*subdexpb.AuthorBlockResponse, error) {
	res, err := s.node.AuthorBlock(ctx, req.TimestampMs)
	if err != nil {
		if errors.Is(err, runtime.ErrInherent) || errors.Is(err, runtime.ErrPhase) {
			return nil, status.Error(codes.FailedPrecondition, err.Error())
		}
		return nil, status.Errorf(codes.Internal, "author failed: %v", err)
	}
	hash := res.Header.Hash()
	return &subdexpb.AuthorBlockResponse{
		Height:        res.Header.Height,
		HeaderHash:    hash[:],
		StateRoot:     res.Header.StateRoot[:],
		EventCount:    uint32(len(res.Events)),
		OutboundCount: uint32(len(res.Outbound.Horizontal) + len(res.Outbound.Upward)),
	}, nil
}

func (s *Server) InjectInbound(ctx context.Context, req *subdexpb.InjectInboundRequest) (*subdexpb.InjectInboundResponse, error) {
	if s.staged == nil {
		return nil, status.Error(codes.FailedPrecondition, "inbound staging is disabled on this node")
	}
	msgs := make([]xcmp.InboundMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m == nil {
			continue
		}
		msgs = append(msgs, xcmp.InboundMessage{
			FromRelay: m.FromRelay,
			Origin:    assets.ParaID(m.Origin),
			Seq:       m.Seq,
			Kind:      xcmp.Kind(m.Kind),
			Payload:   m.Payload,
		})
	}
	queued := s.staged.Stage(msgs)
	return &subdexpb.InjectInboundResponse{Queued: uint32(queued)}, nil
}

func (s *Server) GetBook(ctx context.Context, req *subdexpb.GetBookRequest) (*subdexpb.GetBookResponse, error) {
	base, err := toAsset(req.Base)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "base: %v", err)
	}
	quote, err := toAsset(req.Quote)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "quote: %v", err)
	}
	bids, asks, err := s.node.Book(orderbook.Pair{Base: base, Quote: quote}, int(req.MaxLevels))
	if err != nil {
		if errors.Is(err, orderbook.ErrUnknownPair) {
			return nil, status.Error(codes.NotFound, err.Error())
		}
		return nil, status.Errorf(codes.Internal, "book: %v", err)
	}
	return &subdexpb.GetBookResponse{Bids: toLevels(bids), Asks: toLevels(asks)}, nil
}

func (s *Server) GetBalance(ctx context.Context, req *subdexpb.GetBalanceRequest) (*subdexpb.GetBalanceResponse, error) {
	account, err := assets.ParseAccountID(req.Account)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "account: %v", err)
	}
	asset, err := toAsset(req.Asset)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "asset: %v", err)
	}
	entry, nonce := s.node.Balance(account, asset)
	return &subdexpb.GetBalanceResponse{
		Free:     uint64(entry.Free),
		Reserved: uint64(entry.Reserved),
		Nonce:    nonce,
	}, nil
}

func (s *Server) GetChannel(ctx context.Context, req *subdexpb.GetChannelRequest) (*subdexpb.GetChannelResponse, error) {
	ch, ok := s.node.Channel(assets.ParaID(req.Peer))
	if !ok {
		return nil, status.Errorf(codes.NotFound, "no channel toward shard %d", req.Peer)
	}
	return &subdexpb.GetChannelResponse{
		Status:          ch.Status.String(),
		NextOutboundSeq: ch.NextOutboundSeq,
		LastInboundSeq:  ch.LastInboundSeq,
	}, nil
}

func (s *Server) GetHead(ctx context.Context, req *subdexpb.GetHeadRequest) (*subdexpb.GetHeadResponse, error) {
	head, err := s.node.Head()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "head: %v", err)
	}
	resp := &subdexpb.GetHeadResponse{Height: head.Height, TimestampMs: head.TimestampMs}
	if head.Height > 0 {
		hash := head.Header.Hash()
		resp.HeaderHash = hash[:]
		resp.StateRoot = head.Header.StateRoot[:]
		resp.ParentHash = head.Header.ParentHash[:]
	}
	return resp, nil
}

func toAsset(a *subdexpb.Asset) (assets.Asset, error) {
	if a == nil {
		return assets.Asset{}, fmt.Errorf("asset is required")
	}
	if a.Main {
		if a.Id != 0 {
			return assets.Asset{}, fmt.Errorf("main asset carries no id")
		}
		return assets.Main(), nil
	}
	return assets.Parachain(assets.AssetID(a.Id)), nil
}

func toLevels(levels []orderbook.LevelView) []*subdexpb.BookLevel {
	out := make([]*subdexpb.BookLevel, len(levels))
	for i, lv := range levels {
		out[i] = &subdexpb.BookLevel{
			Price:  uint64(lv.Price),
			Total:  uint64(lv.TotalQty),
			Orders: uint32(lv.Orders),
		}
	}
	return out
}
