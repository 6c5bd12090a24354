package device

//go:generate mockgen -source device.go -destination ./mocks/mocks.go -package mocks
