package domain

// Outcome is a provider result decoded at the boundary. Status returns
// StatusPending when the result should leave the instrument untouched.
type Outcome interface {
	Status() InstrumentStatus
	isOutcome()
}

type CardSuccess struct {
	Amount    int64
	NetAmount *int64
}

type CardWrongAmount struct {
	Declared  int64
	Actual    int64
	NetAmount *int64
}

type CardFailed struct {
	Reason string
}

type BankPaid struct {
	Amount        int64
	Reference     string
	TransactionAt string
}

type BankCancelled struct {
	Reason string
}

type BankFailed struct {
	Code   string
	Reason string
}

type StillPending struct {
	Reason string
}

func (CardSuccess) Status() InstrumentStatus     { return StatusSuccess }
func (CardWrongAmount) Status() InstrumentStatus { return StatusWrongAmount }
func (CardFailed) Status() InstrumentStatus      { return StatusFailed }
func (BankPaid) Status() InstrumentStatus        { return StatusSuccess }
func (BankCancelled) Status() InstrumentStatus   { return StatusCancelled }
func (BankFailed) Status() InstrumentStatus      { return StatusFailed }
func (StillPending) Status() InstrumentStatus    { return StatusPending }

func (CardSuccess) isOutcome()     {}
func (CardWrongAmount) isOutcome() {}
func (CardFailed) isOutcome()      {}
func (BankPaid) isOutcome()        {}
func (BankCancelled) isOutcome()   {}
func (BankFailed) isOutcome()      {}
func (StillPending) isOutcome()    {}

// TransitionFor builds the ledger mutation for a terminal outcome.
func TransitionFor(o Outcome, rawPayload string) Transition {
	t := Transition{To: o.Status(), RawPayload: rawPayload}
	switch v := o.(type) {
	case CardSuccess:
		t.NetAmount = v.NetAmount
	case CardWrongAmount:
		actual := v.Actual
		t.CorrectedAmount = &actual
		t.NetAmount = v.NetAmount
	case BankPaid:
		amount := v.Amount
		t.NetAmount = &amount
		t.Reference = v.Reference
		t.TransactionAt = v.TransactionAt
	}
	return t
}
