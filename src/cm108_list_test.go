package cwkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_mergeHID(t *testing.T) {
	var things = []CM108Device{ //nolint:exhaustruct
		{VID: CMEDIA_VID, PID: 0x000c, CardNumber: "1", SoundNode: "/dev/snd/pcmC1D0p", USBNode: "/dev/bus/usb/001/004"},
		{VID: CMEDIA_VID, PID: 0x000c, CardNumber: "1", SoundNode: "/dev/snd/pcmC1D0c", USBNode: "/dev/bus/usb/001/004"},
		{VID: 0x046d, PID: 0x0a44, CardNumber: "2", SoundNode: "/dev/snd/pcmC2D0p", USBNode: "/dev/bus/usb/001/005"},
	}

	things = mergeHID(things, CM108Device{VID: CMEDIA_VID, PID: 0x000c, HIDRawNode: "/dev/hidraw2", USBNode: "/dev/bus/usb/001/004"}) //nolint:exhaustruct

	assert.Len(t, things, 3)
	assert.Equal(t, "/dev/hidraw2", things[0].HIDRawNode)
	assert.Equal(t, "/dev/hidraw2", things[1].HIDRawNode)
	assert.Empty(t, things[2].HIDRawNode)

	// A keyboard, nothing to do with sound.
	things = mergeHID(things, CM108Device{VID: 0x046d, PID: 0xc31c, HIDRawNode: "/dev/hidraw0", USBNode: "/dev/bus/usb/001/002"}) //nolint:exhaustruct

	assert.Len(t, things, 4)
	assert.Equal(t, "/dev/hidraw0", things[3].HIDRawNode)
}

func Test_FindCM108PTT(t *testing.T) {
	var things = []CM108Device{ //nolint:exhaustruct
		{VID: 0x046d, PID: 0x0a44, CardNumber: "0", HIDRawNode: "/dev/hidraw1"},
		{VID: CMEDIA_VID, PID: CMEDIA_PID_CM108B, CardNumber: "1"},
		{VID: AIOC_VID, PID: AIOC_PID, CardNumber: "2", HIDRawNode: "/dev/hidraw3"},
	}

	var hid, ok = FindCM108PTT(things, "2")
	assert.True(t, ok)
	assert.Equal(t, "/dev/hidraw3", hid)

	_, ok = FindCM108PTT(things, "0")
	assert.False(t, ok, "not a CM108")

	_, ok = FindCM108PTT(things, "1")
	assert.False(t, ok, "no HID")

	_, ok = FindCM108PTT(things, "7")
	assert.False(t, ok)
}

func Test_PlugHW(t *testing.T) {
	assert.Equal(t, "plughw:2,0", CM108Device{CardNumber: "2"}.PlugHW()) //nolint:exhaustruct
	assert.Empty(t, CM108Device{}.PlugHW())                              //nolint:exhaustruct
}

func Test_cardNumber(t *testing.T) {
	for in, want := range map[string]string{"plughw:2,0": "2", "hw:1": "1", "3": "3", "plughw:10,0": "10"} {
		var got, ok = cardNumber(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "default", "plughw:x,0", "hidraw2"} {
		var _, ok = cardNumber(in)
		assert.False(t, ok, in)
	}
}

func Test_ResolveCM108Device(t *testing.T) {
	var hid, err = ResolveCM108Device("/dev/hidraw4")
	assert.NoError(t, err)
	assert.Equal(t, "/dev/hidraw4", hid)

	_, err = ResolveCM108Device("default")
	assert.ErrorIs(t, err, ErrBadConfig)
}
