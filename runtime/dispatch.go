package runtime

import (
	"github.com/subdarkdex/subdex-parachain/domain/assets"
	"github.com/subdarkdex/subdex-parachain/domain/orderbook"
	"github.com/subdarkdex/subdex-parachain/domain/xcmp"
)

// dispatch routes one call. Every arm follows the same discipline: all
// checks before the first mutation, so a non-nil DispatchError
// guarantees state is untouched and the failure is safe to record and
// move past.
func (s *State) dispatch(origin assets.AccountID, call Call) *DispatchError {
	switch c := call.(type) {
	case PlaceOrder:
		return s.placeOrder(origin, c)
	case CancelOrder:
		return s.cancelOrder(origin, c)
	case CreatePair:
		return s.createPair(c)
	case Transfer:
		return s.transfer(origin, c)
	case TransferToRelay:
		return s.transferToRelay(origin, c)
	case TransferToParachain:
		return s.transferToParachain(origin, c)
	case OpenChannel:
		return s.openChannel(c)
	case CloseChannel:
		return s.closeChannel(c)
	default:
		return validation(ErrBadCall)
	}
}

func (s *State) placeOrder(origin assets.AccountID, c PlaceOrder) *DispatchError {
	if c.ExpiresAt != 0 && c.ExpiresAt <= s.Height {
		return validation(ErrExpired)
	}
	res, err := s.Engine.Submit(orderbook.Submission{
		Owner:  origin,
		Pair:   c.Pair,
		Side:   c.Side,
		Price:  c.Price,
		Amount: c.Amount,
		TIF:    c.TIF,
	})
	if err != nil {
		return classify(err)
	}
	s.emit(OrderPlaced{
		Owner:     origin,
		Order:     res.OrderID,
		Pair:      c.Pair,
		Side:      c.Side,
		Price:     c.Price,
		Amount:    c.Amount,
		Remaining: res.Remaining,
		Rested:    res.Rested,
	})
	for _, tr := range res.Trades {
		tr.Height = s.Height
		s.emit(TradeExecuted{Trade: tr})
	}
	return nil
}

func (s *State) cancelOrder(origin assets.AccountID, c CancelOrder) *DispatchError {
	o, err := s.Engine.Cancel(origin, c.Order)
	if err != nil {
		return classify(err)
	}
	s.emit(OrderCancelled{Owner: o.Owner, Order: o.ID})
	return nil
}

func (s *State) createPair(c CreatePair) *DispatchError {
	pair, err := s.Books.CreatePair(c.Base, c.Quote)
	if err != nil {
		return classify(err)
	}
	s.emit(PairCreated{Pair: pair})
	return nil
}

func (s *State) transfer(origin assets.AccountID, c Transfer) *DispatchError {
	if c.Amount == 0 {
		return validation(ErrZeroAmount)
	}
	if err := s.Balances.Transfer(origin, c.Dest, c.Asset, c.Amount); err != nil {
		return classify(err)
	}
	s.emit(Transferred{From: origin, To: c.Dest, Asset: c.Asset, Amount: c.Amount})
	return nil
}

func (s *State) transferToRelay(origin assets.AccountID, c TransferToRelay) *DispatchError {
	if c.Amount == 0 {
		return validation(ErrZeroAmount)
	}
	if s.Balances.Get(origin, assets.Main()).Free < c.Amount {
		return classify(assets.ErrInsufficientFree)
	}
	payload := xcmp.UpwardTransfer{Dest: c.Dest, Amount: c.Amount}.EncodePayload()
	if _, err := s.Channels.EnqueueUpward(xcmp.KindUpTransfer, payload); err != nil {
		return classify(err)
	}
	must(s.Balances.Slash(origin, assets.Main(), c.Amount))
	s.emit(TransferredToRelay{From: origin, Dest: c.Dest, Amount: c.Amount})
	return nil
}

func (s *State) transferToParachain(origin assets.AccountID, c TransferToParachain) *DispatchError {
	if c.Amount == 0 {
		return validation(ErrZeroAmount)
	}
	if c.Para == s.params.Para || c.Para == xcmp.RelayID {
		return validation(ErrBadPeer)
	}
	if s.Balances.Get(origin, c.Asset).Free < c.Amount {
		return classify(assets.ErrInsufficientFree)
	}

	// Name the asset by its home shard so the receiver resolves it in
	// the issuer's namespace, wherever the message came from.
	var owner assets.ParaID
	var remote assets.RemoteAsset
	switch {
	case c.Asset.IsMain():
		owner, remote = xcmp.RelayID, assets.RemoteMain()
	default:
		if p, ra, ok := s.Registry.RemoteOf(c.Asset.ID); ok {
			owner, remote = p, ra
		} else {
			owner, remote = s.params.Para, assets.RemoteID(c.Asset.ID)
		}
	}
	payload := xcmp.TransferToken{Dest: c.Dest, Amount: c.Amount, Owner: owner, Asset: remote}.EncodePayload()
	if _, err := s.Channels.EnqueueOutbound(c.Para, xcmp.KindTransferToken, payload); err != nil {
		return classify(err)
	}
	must(s.Balances.Slash(origin, c.Asset, c.Amount))
	s.emit(WithdrawViaXCMP{Dest: c.Para, From: origin, Asset: c.Asset, Amount: c.Amount})
	return nil
}

func (s *State) openChannel(c OpenChannel) *DispatchError {
	if c.Peer == s.params.Para || c.Peer == xcmp.RelayID {
		return validation(ErrBadPeer)
	}
	requested, err := s.Channels.OpenChannel(c.Peer)
	if err != nil {
		return classify(err)
	}
	if requested {
		s.emit(ChannelOpening{Peer: c.Peer})
	}
	return nil
}

func (s *State) closeChannel(c CloseChannel) *DispatchError {
	if c.Peer == s.params.Para || c.Peer == xcmp.RelayID {
		return validation(ErrBadPeer)
	}
	if err := s.Channels.CloseChannel(c.Peer); err != nil {
		return classify(err)
	}
	s.emit(ChannelClosed{Peer: c.Peer})
	return nil
}
