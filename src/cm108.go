package cwkey

/*------------------------------------------------------------------
 *
 * Purpose:	Use the GPIO pins of a CM108 or similar USB audio
 *		adapter for PTT.
 *
 * Description:	These chips have a few GPIO pins that are reachable
 *		thru the HID interface, /dev/hidraw<n> on Linux.
 *		ListCM108 (cm108_list.go) finds which hidraw device
 *		belongs to which sound card.
 *
 *		By default, the USB HID are accessible only by root.
 *		A udev rule such as
 *
 *			SUBSYSTEM=="hidraw", ATTRS{idVendor}=="0d8c", GROUP="audio", MODE="0660"
 *
 *		lets members of the audio group use it.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"
)

const (
	CMEDIA_VID             = 0xd8c
	CMEDIA_PID1_MIN        = 0x0008
	CMEDIA_PID1_MAX        = 0x000f
	CMEDIA_PID_CM108AH     = 0x0139
	CMEDIA_PID_CM108AH_alt = 0x013c
	CMEDIA_PID_CM108B      = 0x0012
	CMEDIA_PID_CM119A      = 0x013a
	CMEDIA_PID_CM119B      = 0x0013

	SSS_VID  = 0x0c76
	SSS_PID1 = 0x1605
	SSS_PID2 = 0x1607
	SSS_PID3 = 0x160b

	AIOC_VID = 0x1209
	AIOC_PID = 0x7388
)

// GOOD_DEVICE is true for chips known to have usable GPIO pins.
func GOOD_DEVICE(vid, pid int) bool {
	switch vid {
	case CMEDIA_VID:
		return (pid >= CMEDIA_PID1_MIN && pid <= CMEDIA_PID1_MAX) ||
			pid == CMEDIA_PID_CM108AH ||
			pid == CMEDIA_PID_CM108AH_alt ||
			pid == CMEDIA_PID_CM108B ||
			pid == CMEDIA_PID_CM119A ||
			pid == CMEDIA_PID_CM119B
	case SSS_VID:
		return pid == SSS_PID1 || pid == SSS_PID2 || pid == SSS_PID3
	case AIOC_VID:
		return pid == AIOC_PID
	}

	return false
}

type CM108PTT struct {
	device string
	gpio   int
	invert bool
}

/*-------------------------------------------------------------------
 *
 * Name:        NewCM108PTT
 *
 * Inputs:	device	- Name of device such as /dev/hidraw2.
 *
 *		gpio	- GPIO number, 1 thru 8.  Usually 3.
 *
 *		invert	- Low for transmit.
 *
 * Description:	Nothing is kept open.  Each change opens the device,
 *		writes, and closes it again.
 *
 *--------------------------------------------------------------------*/

func NewCM108PTT(device string, gpio int, invert bool) (*CM108PTT, error) {
	if gpio < 1 || gpio > 8 {
		return nil, fmt.Errorf("%w: %s CM108 GPIO number %d must be in range of 1 thru 8", ErrBadConfig, device, gpio)
	}

	return &CM108PTT{device: device, gpio: gpio, invert: invert}, nil
}

func (c *CM108PTT) SetPTT(on bool) error {
	var state = 0
	if on != c.invert {
		state = 1
	}

	return cm108SetGPIOPin(c.device, c.gpio, state)
}

func (c *CM108PTT) Close() error {
	return c.SetPTT(false)
}

func cm108SetGPIOPin(name string, num int, state int) error {
	var iomask = 1 << (num - 1)     // 0=input, 1=output
	var iodata = state << (num - 1) // 0=low, 1=high

	return cm108Write(name, iomask, iodata)
}

/*-------------------------------------------------------------------
 *
 * Name:	cm108Write
 *
 * Purpose:	Set the GPIO pins of the CM108 or similar.
 *
 * Inputs:	name		- Name of device such as /dev/hidraw2.
 *
 *		iomask		- Bit mask for I/O direction.
 *				  LSB is GPIO1, bit 1 is GPIO2, etc.
 *				  1 for output, 0 for input.
 *
 *		iodata		- Output data, same bit order as iomask.
 *
 *------------------------------------------------------------------*/

func cm108Write(name string, iomask int, iodata int) error {
	var fd, err = os.OpenFile(name, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("could not open %s for write: %w", name, err)
	}
	defer fd.Close()

	// Only a warning.  Plenty of clones report odd IDs and work anyway.
	var info, ioctlErr = unix.IoctlHIDGetRawInfo(int(fd.Fd()))
	if ioctlErr == nil && !GOOD_DEVICE(int(uint16(info.Vendor)), int(uint16(info.Product))) {
		log.Warn("not a known CM108 type device, proceed at your own risk",
			"device", name, "vid", fmt.Sprintf("%04x", uint16(info.Vendor)), "pid", fmt.Sprintf("%04x", uint16(info.Product)))
	}

	// Writing 4 bytes fails with EPIPE.  Hamlib writes 5 and that works.
	var data = []byte{0, 0, byte(iodata), byte(iomask), 0}

	var n, writeErr = fd.Write(data)
	if writeErr != nil {
		return fmt.Errorf("write to %s failed: %w", name, writeErr)
	}
	if n != len(data) {
		return fmt.Errorf("write to %s failed: wrote %d of %d bytes", name, n, len(data))
	}

	return nil
}
