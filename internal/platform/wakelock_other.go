//go:build !linux

package platform

func platformInhibitor() func() (inhibitor, error) {
	return nil
}
