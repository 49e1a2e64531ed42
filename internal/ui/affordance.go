package ui

import "capdeck/internal/controller"

// Control is the label and enabled flag of one UI control. Both are a
// pure function of controller state so the mapping can be pinned by
// tests.
type Control struct {
	Label   string
	Enabled bool
}

// AudioToggleControl maps the audio controller state to its primary
// control. In the error state the control reads "Error" and is
// disabled.
func AudioToggleControl(s controller.State) Control {
	switch s {
	case controller.StateRecording:
		return Control{Label: "Stop Recording", Enabled: true}
	case controller.StateError:
		return Control{Label: "Error", Enabled: false}
	default:
		return Control{Label: "Record", Enabled: true}
	}
}

// PreviewControl maps the video state to the preview toggle. The label
// alternates between starting and stopping the preview.
func PreviewControl(s controller.State) Control {
	switch s {
	case controller.StatePreviewing:
		return Control{Label: "Stop Preview", Enabled: true}
	case controller.StateRecording:
		return Control{Label: "Stop Preview", Enabled: false}
	case controller.StateError:
		return Control{Label: "Start Preview", Enabled: false}
	default:
		return Control{Label: "Start Preview", Enabled: true}
	}
}

// RecordControl maps the video state to the record toggle. Recording
// can only start from an open preview.
func RecordControl(s controller.State) Control {
	switch s {
	case controller.StatePreviewing:
		return Control{Label: "Start Recording", Enabled: true}
	case controller.StateRecording:
		return Control{Label: "Stop Recording", Enabled: true}
	default:
		return Control{Label: "Start Recording", Enabled: false}
	}
}

// PhotoControl is enabled only while previewing.
func PhotoControl(s controller.State) Control {
	return Control{Label: "Take Photo", Enabled: s == controller.StatePreviewing}
}

// FlipControl is enabled only while previewing and only when the stream
// reports an alternate facing.
func FlipControl(s controller.State, canFlip bool) Control {
	return Control{Label: "Flip Camera", Enabled: s == controller.StatePreviewing && canFlip}
}

// LocationControl is enabled whenever no lookup is in flight.
// Triggering it with the capability absent reports the fixed
// unavailable status.
func LocationControl(busy bool) Control {
	return Control{Label: "Get Location", Enabled: !busy}
}
