package wire

// TxCache tracks the last-sent value of each change-triggered message kind so
// the serial worker (C3) can skip re-sending fields that have not changed
// since the previous transmit tick. $SRV is exempt — it is always sent as the
// heartbeat. Grounded on the teacher's transport.AsyncTx / serial.TXWriter
// pair, generalized from "one frame kind" to "one cache slot per tag".
type TxCache struct {
	valid bool // false right after construction or ForceAll: every kind is considered changed

	lgt LightCommand
	rgb rgbCache
	mtx mtxCache
	npm npmCache
	npr nprCache
	flg int
	vlv bool
	est bool
}

type rgbCache struct {
	mode               RGBMode
	primary, secondary RGBColor
	speed              int
}

type mtxCache struct{ left, right MatrixPattern }

type npmCache struct {
	mode               NPMMode
	letter             byte
	primary, secondary RGBColor
	speed              int
}

type nprCache struct {
	mode               NPRMode
	primary, secondary RGBColor
	speed              int
}

// NewTxCache returns a cache whose first *Changed call against any command
// always reports a change, so the very first transmit sends every kind.
func NewTxCache() *TxCache { return &TxCache{} }

// ForceAll invalidates the cache so the next transmit resends every kind,
// used by C3's force-flush before shutdown.
func (c *TxCache) ForceAll() { c.valid = false }

// LGTChanged reports whether the light command changed and updates the cache.
func (c *TxCache) LGTChanged(v LightCommand) bool {
	changed := !c.valid || c.lgt != v
	c.lgt = v
	return changed
}

func (c *TxCache) RGBChanged(mode RGBMode, primary, secondary RGBColor, speed int) bool {
	next := rgbCache{mode, primary, secondary, speed}
	changed := !c.valid || c.rgb != next
	c.rgb = next
	return changed
}

func (c *TxCache) MTXChanged(left, right MatrixPattern) bool {
	next := mtxCache{left, right}
	changed := !c.valid || c.mtx != next
	c.mtx = next
	return changed
}

func (c *TxCache) NPMChanged(mode NPMMode, letter byte, primary, secondary RGBColor, speed int) bool {
	next := npmCache{mode, letter, primary, secondary, speed}
	changed := !c.valid || c.npm != next
	c.npm = next
	return changed
}

func (c *TxCache) NPRChanged(mode NPRMode, primary, secondary RGBColor, speed int) bool {
	next := nprCache{mode, primary, secondary, speed}
	changed := !c.valid || c.npr != next
	c.npr = next
	return changed
}

func (c *TxCache) FLGChanged(v int) bool {
	changed := !c.valid || c.flg != v
	c.flg = v
	return changed
}

func (c *TxCache) VLVChanged(v bool) bool {
	changed := !c.valid || c.vlv != v
	c.vlv = v
	return changed
}

func (c *TxCache) ESTChanged(v bool) bool {
	changed := !c.valid || c.est != v
	c.est = v
	return changed
}

// MarkValid finishes a transmit pass: subsequent *Changed calls compare against
// the values just recorded rather than reporting an unconditional change.
// Must be called once after every field of Command has been checked.
func (c *TxCache) MarkValid() { c.valid = true }
