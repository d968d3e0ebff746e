package domain

// ToastKind is the severity of a transient notice.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastInfo    ToastKind = "info"
	ToastWarning ToastKind = "warning"
)

func (k ToastKind) Valid() bool {
	switch k {
	case ToastSuccess, ToastError, ToastInfo, ToastWarning:
		return true
	default:
		return false
	}
}

// ToastLink is an optional call-to-action attached to a toast.
type ToastLink struct {
	URL   string
	Label string
}

// Toast is one transient user-facing notice. After creation only Visible
// changes, driven by the sink's display/fade timers.
type Toast struct {
	ID      string
	Kind    ToastKind
	Message string
	Link    *ToastLink
	Visible bool
}
