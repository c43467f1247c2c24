package events

type decodeFunc func(data []byte, m Meta) (Event, error)

type decoder struct {
	kind   Kind
	decode decodeFunc
}

// decoders maps the Move struct name (last segment of the event type) to its BCS layout.
var decoders = map[string]decoder{
	"OfferPlacedEvent":        {KindOfferPlaced, decodeOfferPlaced},
	"OfferCancelledEvent":     {KindOfferCancelled, decodeOfferCancelled},
	"OfferAcceptedEvent":      {KindOfferAccepted, decodeOfferAccepted},
	"OfferDeclinedEvent":      {KindOfferDeclined, decodeOfferDeclined},
	"MakeCounterOfferEvent":   {KindCounterOfferMade, decodeCounterOfferMade},
	"AcceptCounterOfferEvent": {KindCounterOfferAccepted, decodeCounterOfferAccepted},
	"AuctionCreatedEvent":     {KindAuctionCreated, decodeAuctionCreated},
	"BidPlacedEvent":          {KindBidPlaced, decodeBidPlaced},
	"AuctionFinalizedEvent":   {KindAuctionFinalized, decodeAuctionFinalized},
	"AuctionCancelledEvent":   {KindAuctionCancelled, decodeAuctionCancelled},
}

func decodeOfferPlaced(data []byte, m Meta) (Event, error) {
	w, err := unmarshal[offerWire](data)
	if err != nil {
		return nil, err
	}
	return OfferPlaced{Meta: m, DomainName: lossyString(w.DomainName), Address: w.Address.String(), Value: amount(w.Value)}, nil
}

func decodeOfferCancelled(data []byte, m Meta) (Event, error) {
	w, err := unmarshal[offerWire](data)
	if err != nil {
		return nil, err
	}
	return OfferCancelled{Meta: m, DomainName: lossyString(w.DomainName), Address: w.Address.String(), Value: amount(w.Value)}, nil
}

func decodeOfferAccepted(data []byte, m Meta) (Event, error) {
	w, err := unmarshal[ownerBuyerOfferWire](data)
	if err != nil {
		return nil, err
	}
	return OfferAccepted{Meta: m, DomainName: lossyString(w.DomainName), Owner: w.Owner.String(), Buyer: w.Buyer.String(), Value: amount(w.Value)}, nil
}

func decodeOfferDeclined(data []byte, m Meta) (Event, error) {
	w, err := unmarshal[ownerBuyerOfferWire](data)
	if err != nil {
		return nil, err
	}
	return OfferDeclined{Meta: m, DomainName: lossyString(w.DomainName), Owner: w.Owner.String(), Buyer: w.Buyer.String(), Value: amount(w.Value)}, nil
}

func decodeCounterOfferMade(data []byte, m Meta) (Event, error) {
	w, err := unmarshal[ownerBuyerOfferWire](data)
	if err != nil {
		return nil, err
	}
	return CounterOfferMade{Meta: m, DomainName: lossyString(w.DomainName), Owner: w.Owner.String(), Buyer: w.Buyer.String(), Value: amount(w.Value)}, nil
}

func decodeCounterOfferAccepted(data []byte, m Meta) (Event, error) {
	w, err := unmarshal[counterOfferAcceptedWire](data)
	if err != nil {
		return nil, err
	}
	return CounterOfferAccepted{Meta: m, DomainName: lossyString(w.DomainName), Buyer: w.Buyer.String(), Value: amount(w.Value)}, nil
}

func decodeAuctionCreated(data []byte, m Meta) (Event, error) {
	w, err := unmarshal[auctionCreatedWire](data)
	if err != nil {
		return nil, err
	}
	start, err := timestamp("start_time", w.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := timestamp("end_time", w.EndTime)
	if err != nil {
		return nil, err
	}
	return AuctionCreated{
		Meta:       m,
		AuctionID:  w.AuctionID.String(),
		DomainName: lossyString(w.DomainName),
		Owner:      w.Owner.String(),
		StartTime:  start,
		EndTime:    end,
		MinBid:     amount(w.MinBid),
	}, nil
}

func decodeBidPlaced(data []byte, m Meta) (Event, error) {
	w, err := unmarshal[auctionAmountWire](data)
	if err != nil {
		return nil, err
	}
	return BidPlaced{Meta: m, AuctionID: w.AuctionID.String(), DomainName: lossyString(w.DomainName), Bidder: w.Account.String(), Amount: amount(w.Amount)}, nil
}

func decodeAuctionFinalized(data []byte, m Meta) (Event, error) {
	w, err := unmarshal[auctionAmountWire](data)
	if err != nil {
		return nil, err
	}
	return AuctionFinalized{Meta: m, AuctionID: w.AuctionID.String(), DomainName: lossyString(w.DomainName), Winner: w.Account.String(), Amount: amount(w.Amount)}, nil
}

func decodeAuctionCancelled(data []byte, m Meta) (Event, error) {
	w, err := unmarshal[auctionCancelledWire](data)
	if err != nil {
		return nil, err
	}
	return AuctionCancelled{Meta: m, AuctionID: w.AuctionID.String(), DomainName: lossyString(w.DomainName), Owner: w.Owner.String()}, nil
}
