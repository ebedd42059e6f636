// Package firmware loads raw binary firmware images for SBP transfers.
//
// An Image is an immutable byte sequence plus its whole-image CRC-32/MPEG-2.
// The transfer splits it into ChunkSize (1024 byte) windows, the last of
// which may be shorter:
//
//	img, err := firmware.Load("app.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for i := 0; i < img.NumChunks(); i++ {
//	    chunk := img.Chunk(i)
//	    // ...
//	}
//
// Empty images and images larger than 4 GiB are rejected.
package firmware
