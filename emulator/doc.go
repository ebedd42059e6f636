// Package emulator simulates the device side of the Serial Bootloader Protocol.
//
// A Device reassembles packets from the bytes a host writes, checks their
// checksums and ordering (START, CONF, DATA..., STOP) and queues a 12-byte
// RESP frame per packet. On STOP it verifies the reassembled image against
// the size and checksum announced by CONF.
//
// Faults can be injected per packet to exercise host error paths:
//
//	dev := emulator.New(emulator.WithFault(3, emulator.FaultNack))
//	prog := bootloader.New(dev, bootloader.WithSettleDelays(0, 0, 0))
//	err := prog.Program(ctx, img, "1.2.3") // fails on the second DATA packet
package emulator
