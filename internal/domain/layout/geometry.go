// Package layout places revealed photos into balanced masonry columns.
package layout

// Device is the coarse device class a gallery is rendered for.
type Device string

// Device classes.
const (
	DeviceMobile  Device = "mobile"
	DeviceTablet  Device = "tablet"
	DeviceDesktop Device = "desktop"
)

// Gaps in pixels between columns and between stacked items.
const (
	TightGap   = 4
	DefaultGap = 8
)

// Breakpoint maps a minimum container width to a column count.
type Breakpoint struct {
	MinWidth int
	Columns  int
	Device   Device
}

// DefaultBreakpoints is ordered from widest to narrowest.
var DefaultBreakpoints = []Breakpoint{
	{MinWidth: 1440, Columns: 5, Device: DeviceDesktop},
	{MinWidth: 1024, Columns: 4, Device: DeviceDesktop},
	{MinWidth: 640, Columns: 3, Device: DeviceTablet},
	{MinWidth: 0, Columns: 2, Device: DeviceMobile},
}

// ColumnsFor picks the column count and device class for a container width
// using DefaultBreakpoints.
func ColumnsFor(width int) (int, Device) {
	return ColumnsForBreakpoints(width, DefaultBreakpoints)
}

// ColumnsForBreakpoints is ColumnsFor over a custom breakpoint table ordered
// from widest to narrowest.
func ColumnsForBreakpoints(width int, breakpoints []Breakpoint) (int, Device) {
	if len(breakpoints) == 0 {
		breakpoints = DefaultBreakpoints
	}
	for _, bp := range breakpoints {
		if width >= bp.MinWidth {
			return max(bp.Columns, 1), bp.Device
		}
	}
	last := breakpoints[len(breakpoints)-1]
	return max(last.Columns, 1), last.Device
}

// Gap is tight only for the two-column mobile layout.
func Gap(device Device, columns int) int {
	if device == DeviceMobile && columns == 2 {
		return TightGap
	}
	return DefaultGap
}

// ColumnWidth is floor((containerWidth - (columns-1)×gap) / columns), never negative.
func ColumnWidth(containerWidth, columns, gap int) int {
	if columns < 1 {
		columns = 1
	}
	w := (containerWidth - (columns-1)*gap) / columns
	return max(w, 0)
}
