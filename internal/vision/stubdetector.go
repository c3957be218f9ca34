package vision

// NullDetector reports no detections. Paired with StubCamera in the
// controller binary; a real detector is an external collaborator supplied by
// the deployment.
type NullDetector struct{}

var _ Detector = NullDetector{}

func (NullDetector) Detect(Frame) ([]Detection, error) {
	return nil, nil
}
