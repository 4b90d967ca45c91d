package models

// GaitPhase is a stage of the running gait cycle.
type GaitPhase string

const (
	PhaseInitialContact  GaitPhase = "initialContact"
	PhaseLoadingResponse GaitPhase = "loadingResponse"
	PhaseMidStance       GaitPhase = "midStance"
	PhaseTerminalStance  GaitPhase = "terminalStance"
	PhasePreSwing        GaitPhase = "preSwing"
	PhaseInitialSwing    GaitPhase = "initialSwing"
	PhaseMidSwing        GaitPhase = "midSwing"
	PhaseTerminalSwing   GaitPhase = "terminalSwing"
)

// GaitPhases lists phases in cycle order. Model phase outputs use this index.
var GaitPhases = []GaitPhase{
	PhaseInitialContact,
	PhaseLoadingResponse,
	PhaseMidStance,
	PhaseTerminalStance,
	PhasePreSwing,
	PhaseInitialSwing,
	PhaseMidSwing,
	PhaseTerminalSwing,
}

// FootStrikePattern is the first zone to load at contact.
type FootStrikePattern string

const (
	StrikeForefoot FootStrikePattern = "forefoot"
	StrikeMidfoot  FootStrikePattern = "midfoot"
	StrikeRearfoot FootStrikePattern = "rearfoot"
)

// Abnormality is a detected gait fault.
type Abnormality string

const (
	Overpronation       Abnormality = "overpronation"
	Oversupination      Abnormality = "oversupination"
	VerticalOscillation Abnormality = "verticalOscillation"
	CadenceIrregularity Abnormality = "cadenceIrregularity"
	TrunkLean           Abnormality = "trunkLean"
	Overstriding        Abnormality = "overstriding"
	ArmSwing            Abnormality = "armSwing"
	CrossoverGait       Abnormality = "crossoverGait"
	KneeCollapse        Abnormality = "kneeCollapse"
)

// Abnormalities lists every abnormality in model output order.
var Abnormalities = []Abnormality{
	Overpronation,
	Oversupination,
	VerticalOscillation,
	CadenceIrregularity,
	TrunkLean,
	Overstriding,
	ArmSwing,
	CrossoverGait,
	KneeCollapse,
}

// DominantFootStrike classifies by the zone with the highest pressure.
// Forefoot wins only when strictly greatest, rearfoot likewise; ties fall to midfoot.
func DominantFootStrike(p PressureZones) FootStrikePattern {
	switch {
	case p.Forefoot > p.Midfoot && p.Forefoot > p.Rearfoot:
		return StrikeForefoot
	case p.Rearfoot > p.Forefoot && p.Rearfoot > p.Midfoot:
		return StrikeRearfoot
	default:
		return StrikeMidfoot
	}
}
