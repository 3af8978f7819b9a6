//go:build tinygo && avr

// Firmware for the Arduino Uno: the command set over the UART.
package main

import (
	"machine"

	"unohal/core"
	"unohal/protocol"
	"unohal/targets/avr/uno"
)

const baudRate = 115200

var (
	inputBuffer  *protocol.FifoBuffer
	outputBuffer *protocol.ScratchOutput
	transport    *protocol.Transport

	// frames the transport could not take because the FIFO was full
	overruns uint16
)

func main() {
	uno.Init()

	machine.Serial.Configure(machine.UARTConfig{BaudRate: baudRate})
	core.SetDebugWriter(func(s string) {
		_, _ = machine.Serial.Write([]byte(s))
		_, _ = machine.Serial.Write([]byte("\r\n"))
	})

	core.InitCommands()

	inputBuffer = protocol.NewFifoBuffer(protocol.MessageLengthMax * 2)
	outputBuffer = protocol.NewScratchOutput()
	transport = protocol.NewTransport(outputBuffer, core.DispatchCommand)
	transport.SetResetCallback(outputBuffer.Reset)
	// the ACK has to leave before the next frame is parsed
	transport.SetFlushCallback(writeUART)
	core.SetGlobalTransport(transport)

	for {
		readUART()
		if inputBuffer.Available() > 0 {
			transport.Receive(inputBuffer)
		}
		writeUART()
		core.ProcessTimers(core.Millis())
	}
}

// readUART moves whatever the UART ring holds into the frame FIFO.
func readUART() {
	for machine.Serial.Buffered() > 0 {
		if inputBuffer.Free() == 0 {
			overruns++
			return
		}
		b, err := machine.Serial.ReadByte()
		if err != nil {
			return
		}
		inputBuffer.Write([]byte{b})
	}
}

func writeUART() {
	result := outputBuffer.Result()
	if len(result) == 0 {
		return
	}
	_, _ = machine.Serial.Write(result)
	outputBuffer.Reset()
}
