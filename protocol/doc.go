// Package protocol implements the Serial Bootloader Protocol (SBP) packet codec.
//
// This package provides functions to build the packets a host sends to an SBP
// bootloader and to validate the responses the bootloader sends back.
//
// # Protocol Overview
//
// Every packet starts with a 4-byte header followed by a type-specific payload:
//
//	Header:  [SOF][TYPE][LEN_L][LEN_H]
//	START:   [0x00 x 8]                                   LEN = 4
//	CONF:    [VERSION(4)][SIZE(4)][CRC(4)][CRC(4)]         LEN = 12
//	DATA:    [CHUNK(1..1024)][CRC(4)]                      LEN = len(CHUNK)
//	STOP:    [0x00 x 8]                                   LEN = 4
//	RESP:    [CODE][RESERVED(7)]                          (device generated)
//
// Where:
//   - SOF = Start of Frame (0x5A)
//   - LEN = 16-bit length (little-endian)
//   - CRC = CRC-32/MPEG-2, 4 bytes little-endian
//   - CODE = ACK (0x15) or NACK (0x16)
//
// # Packet Builders
//
// Use the Build* functions to create packets:
//
//	pkt, err := protocol.BuildStartPacket()
//	pkt, err := protocol.BuildConfPacket(version, image)
//	pkt, err := protocol.BuildDataPacket(chunk)
//
// A Packet keeps its header and payload apart; the bootloader expects a short
// pause between the two writes:
//
//	dev.Write(pkt.HeaderBytes())
//	time.Sleep(100 * time.Millisecond)
//	dev.Write(pkt.Payload)
//
// # Response Validation
//
// Every packet is answered by a 12-byte RESP frame:
//
//	frame := make([]byte, protocol.ResponseSize)
//	if _, err := io.ReadFull(dev, frame); err != nil {
//	    return err
//	}
//	if err := protocol.ValidateResponse(frame); err != nil {
//	    return err // *ProtocolError for NACK
//	}
//
// # Checksums
//
// Checksum computes CRC-32/MPEG-2 (poly 0x04C11DB7, init 0xFFFFFFFF,
// no reflection, no final XOR). NewHash returns the same algorithm as a
// streaming hash.Hash32.
package protocol
