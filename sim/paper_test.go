package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"trade-pilot/exchange"
	"trade-pilot/order"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestMarketableOrderFillsImmediately(t *testing.T) {
	v := NewPaperVenue("BTC-USD-SWAP", dec("100"), decimal.Zero)
	norm := exchange.NewOKExSwap()

	id, err := v.SubmitOrder(context.Background(), order.Order{
		Side: order.SideBuy, Price: dec("101"), Size: dec("2"), Type: order.TypeNormal,
	})
	if err != nil {
		t.Fatal(err)
	}
	raw, err := v.QueryOrder(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	rep, err := norm.Normalize(raw)
	if err != nil {
		t.Fatal(err)
	}
	if rep.State != order.StateFilled {
		t.Fatalf("expected filled, got %s", rep.State)
	}
	if !rep.Fill.AvgPrice.Equal(dec("101")) {
		t.Fatalf("unexpected avg price %s", rep.Fill.AvgPrice)
	}
}

func TestRestingOrderFillsOnPriceMove(t *testing.T) {
	v := NewPaperVenue("BTC-USD-SWAP", dec("100"), decimal.Zero)

	id, _ := v.SubmitOrder(context.Background(), order.Order{
		Side: order.SideBuy, Price: dec("99"), Size: dec("1"), Type: order.TypeNormal,
	})
	raw, _ := v.QueryOrder(context.Background(), id)
	if raw.Status != "0" {
		t.Fatalf("expected resting, got status %s", raw.Status)
	}

	v.SetLastPrice(dec("98.5"))
	raw, _ = v.QueryOrder(context.Background(), id)
	if raw.Status != "2" {
		t.Fatalf("expected filled after price move, got %s", raw.Status)
	}
}

func TestCancelRestingAndTerminalRace(t *testing.T) {
	v := NewPaperVenue("BTC-USD-SWAP", dec("100"), decimal.Zero)

	resting, _ := v.SubmitOrder(context.Background(), order.Order{
		Side: order.SideSell, Price: dec("105"), Size: dec("1"), Type: order.TypeNormal,
	})
	st, err := v.CancelOrder(context.Background(), resting)
	if err != nil || st != exchange.CancelOK {
		t.Fatalf("expected CancelOK, got %v %v", st, err)
	}
	raw, _ := v.QueryOrder(context.Background(), resting)
	if raw.Status != "-1" {
		t.Fatalf("expected cancelled, got %s", raw.Status)
	}

	// 已成交订单撤单触发竞态分支
	filled, _ := v.SubmitOrder(context.Background(), order.Order{
		Side: order.SideBuy, Price: dec("101"), Size: dec("1"), Type: order.TypeNormal,
	})
	st, err = v.CancelOrder(context.Background(), filled)
	if err != nil || st != exchange.CancelAlreadyTerminal {
		t.Fatalf("expected CancelAlreadyTerminal, got %v %v", st, err)
	}
}

func TestInvalidOrderRejected(t *testing.T) {
	v := NewPaperVenue("BTC-USD-SWAP", dec("100"), decimal.Zero)
	_, err := v.SubmitOrder(context.Background(), order.Order{
		Side: order.SideBuy, Price: dec("100"), Size: decimal.Zero,
	})
	if !errors.Is(err, exchange.ErrOrderRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
}

func TestPositionTracksFills(t *testing.T) {
	v := NewPaperVenue("BTC-USD-SWAP", dec("100"), decimal.Zero)

	v.SubmitOrder(context.Background(), order.Order{Side: order.SideBuy, Price: dec("100"), Size: dec("3")})
	pos, _ := v.PositionInfo(context.Background())
	if pos.Direction != exchange.PositionLong || !pos.Amount.Equal(dec("3")) {
		t.Fatalf("unexpected position %+v", pos)
	}

	v.SubmitOrder(context.Background(), order.Order{Side: order.SideSell, Price: dec("99"), Size: dec("3")})
	pos, _ = v.PositionInfo(context.Background())
	if pos.Direction != exchange.PositionNone {
		t.Fatalf("expected flat, got %+v", pos)
	}
}
