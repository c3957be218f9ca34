package wire

// BuildTxLines returns the wire lines to send for one transmit tick: $SRV is
// always included (the heartbeat); every other message kind is included only
// if the corresponding fields of cmd differ from the cache's last-sent
// values. The cache is updated as a side effect.
func BuildTxLines(cmd Command, cache *TxCache) []string {
	lines := make([]string, 0, 9)
	lines = append(lines, EncodeSRV(cmd.ServoTarget))

	if cache.LGTChanged(cmd.LightCommand) {
		lines = append(lines, EncodeLGT(cmd.LightCommand))
	}
	if cache.RGBChanged(cmd.RGBMode, cmd.RGBPrimary, cmd.RGBSecondary, cmd.RGBSpeed) {
		lines = append(lines, EncodeRGB(cmd.RGBMode, cmd.RGBPrimary, cmd.RGBSecondary, cmd.RGBSpeed))
	}
	if cache.MTXChanged(cmd.MatrixLeft, cmd.MatrixRight) {
		lines = append(lines, EncodeMTX(cmd.MatrixLeft, cmd.MatrixRight))
	}
	if cache.NPMChanged(cmd.NPMMode, cmd.NPMLetter, cmd.NPMPrimary, cmd.NPMSecondary, cmd.NPMSpeed) {
		lines = append(lines, EncodeNPM(cmd.NPMMode, cmd.NPMLetter, cmd.NPMPrimary, cmd.NPMSecondary, cmd.NPMSpeed))
	}
	if cache.NPRChanged(cmd.NPRMode, cmd.NPRPrimary, cmd.NPRSecondary, cmd.NPRSpeed) {
		lines = append(lines, EncodeNPR(cmd.NPRMode, cmd.NPRPrimary, cmd.NPRSecondary, cmd.NPRSpeed))
	}
	if cache.FLGChanged(cmd.Flags) {
		lines = append(lines, EncodeFLG(cmd.Flags))
	}
	if cache.VLVChanged(cmd.ValveOpen) {
		lines = append(lines, EncodeVLV(cmd.ValveOpen))
	}
	if cache.ESTChanged(cmd.DispensingEnabled) {
		lines = append(lines, EncodeEST(cmd.DispensingEnabled))
	}
	cache.MarkValid()
	return lines
}
