package service

// QRCodeService defines the interface for QR code generation services
type QRCodeService interface {
	// GenerateInviteQR renders the cluster invite link as a PNG image.
	GenerateInviteQR(link string) ([]byte, error)
}
