package cwkey

/*------------------------------------------------------------------
 *
 * Purpose:	Take inventory of USB audio adapters and the HID that
 *		goes with each, so the user knows which /dev/hidraw<n>
 *		to put in the PTT configuration.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jochenvg/go-udev"
)

// CM108Device is one USB audio adapter, HID, or both merged together.
type CM108Device struct {
	VID        int
	PID        int
	Product    string
	CardNumber string // e.g. 2 for plughw:2,0
	CardName   string
	SoundNode  string // e.g. /dev/snd/pcmC0D0p
	HIDRawNode string // e.g. /dev/hidraw3
	USBNode    string // What we use to match up audio and HID.
	CanGPIOPTT bool
}

func (d CM108Device) PlugHW() string {
	if d.CardNumber == "" {
		return ""
	}

	return fmt.Sprintf("plughw:%s,0", d.CardNumber)
}

func hexAttr(d *udev.Device, name string) int {
	var v, _ = strconv.ParseInt(d.SysattrValue(name), 16, 32)
	return int(v)
}

/*-------------------------------------------------------------------
 *
 * Name:	ListCM108
 *
 * Purpose:	Walk the sound and hidraw subsystems and merge the
 *		entries that share a USB device.
 *
 *------------------------------------------------------------------*/

func ListCM108() ([]CM108Device, error) {
	var u udev.Udev

	var sound = u.NewEnumerate()
	if err := sound.AddMatchSubsystem("sound"); err != nil {
		return nil, fmt.Errorf("udev sound match: %w", err)
	}

	var soundDevices, soundErr = sound.Devices()
	if soundErr != nil {
		return nil, fmt.Errorf("udev sound scan: %w", soundErr)
	}

	var things []CM108Device
	var cardID, cardNumber string

	for _, dev := range soundDevices {
		if dev.Devnode() == "" {
			// The card itself.  Its pcm and control nodes follow.
			cardID = dev.SysattrValue("id")
			cardNumber = dev.SysattrValue("number")
			continue
		}

		var parent = dev.ParentWithSubsystemDevtype("usb", "usb_device")
		if parent == nil {
			continue
		}

		things = append(things, CM108Device{ //nolint:exhaustruct
			VID:        hexAttr(parent, "idVendor"),
			PID:        hexAttr(parent, "idProduct"),
			Product:    parent.SysattrValue("product"),
			CardNumber: cardNumber,
			CardName:   cardID,
			SoundNode:  dev.Devnode(),
			USBNode:    parent.Devnode(),
		})
	}

	var hid = u.NewEnumerate()
	if err := hid.AddMatchSubsystem("hidraw"); err != nil {
		return nil, fmt.Errorf("udev hidraw match: %w", err)
	}

	var hidDevices, hidErr = hid.Devices()
	if hidErr != nil {
		return nil, fmt.Errorf("udev hidraw scan: %w", hidErr)
	}

	for _, dev := range hidDevices {
		if dev.Devnode() == "" {
			continue
		}

		var parent = dev.ParentWithSubsystemDevtype("usb", "usb_device")
		if parent == nil {
			continue
		}

		things = mergeHID(things, CM108Device{ //nolint:exhaustruct
			VID:        hexAttr(parent, "idVendor"),
			PID:        hexAttr(parent, "idProduct"),
			Product:    parent.SysattrValue("product"),
			HIDRawNode: dev.Devnode(),
			USBNode:    parent.Devnode(),
		})
	}

	for i := range things {
		things[i].CanGPIOPTT = GOOD_DEVICE(things[i].VID, things[i].PID) && things[i].HIDRawNode != ""
	}

	return things, nil
}

// mergeHID adds the hidraw name to every sound entry on the same USB device,
// or appends the HID on its own if there is none.
func mergeHID(things []CM108Device, h CM108Device) []CM108Device {
	var matched = false

	for i := range things {
		if things[i].VID == h.VID && things[i].PID == h.PID && h.USBNode != "" && things[i].USBNode == h.USBNode {
			things[i].HIDRawNode = h.HIDRawNode
			matched = true
		}
	}

	if !matched {
		things = append(things, h)
	}

	return things
}

// FindCM108PTT picks the HID for a sound card number, as used in plughw:N,0.
func FindCM108PTT(things []CM108Device, cardNumber string) (string, bool) {
	for _, t := range things {
		if t.CardNumber == cardNumber && t.HIDRawNode != "" && GOOD_DEVICE(t.VID, t.PID) {
			return t.HIDRawNode, true
		}
	}

	return "", false
}

// cardNumber picks N out of "plughw:N,0", "hw:N" or plain "N".
func cardNumber(device string) (string, bool) {
	var s = device
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[i+1:]
	}
	s, _, _ = strings.Cut(s, ",")

	if _, err := strconv.Atoi(s); err != nil {
		return "", false
	}

	return s, true
}

/*-------------------------------------------------------------------
 *
 * Name:	ResolveCM108Device
 *
 * Purpose:	Let the PTT device be given as the sound card it
 *		belongs to, e.g. plughw:2,0, rather than /dev/hidraw<n>
 *		which can change from one boot to the next.
 *
 *------------------------------------------------------------------*/

func ResolveCM108Device(device string) (string, error) {
	if strings.HasPrefix(device, "/") {
		return device, nil
	}

	var card, ok = cardNumber(device)
	if !ok {
		return "", fmt.Errorf("%w: %q is neither a hidraw device nor a sound card", ErrBadConfig, device)
	}

	var things, err = ListCM108()
	if err != nil {
		return "", err
	}

	var hid, found = FindCM108PTT(things, card)
	if !found {
		return "", fmt.Errorf("%w: no CM108 compatible GPIO on sound card %s", ErrBadConfig, card)
	}

	return hid, nil
}
