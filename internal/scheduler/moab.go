package scheduler

// Moab implements Commands for Moab. Only submission and cancellation are
// supported; its status output is not parsed.
type Moab struct{}

// NewMoab creates the MOAB command table
func NewMoab() *Moab { return &Moab{} }

func (m *Moab) Type() Type { return TypeMOAB }

func (m *Moab) SubmitCommand() []string { return []string{"msub"} }

func (m *Moab) DeleteCommand() []string { return []string{"mjobctl", "-c"} }

func (m *Moab) StatusCommand() []string { return []string{"mdiag", "-x"} }

func (m *Moab) ReservationCommand() ([]string, error) {
	return nil, ErrNotImplemented
}

func (m *Moab) Dependencies(ids []string) ([]string, error) {
	return noDependencies(ids)
}

func (m *Moab) JobIDFromOutput(out string) (int64, error) {
	return 0, ErrNotImplemented
}

func (m *Moab) ParseStatus(out string) (*StatusTable, error) {
	return nil, ErrNotImplemented
}

func (m *Moab) DefaultTemplate() string { return moabTemplate }
