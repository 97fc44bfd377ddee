// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the built-in demo page.
package server

import (
	"fmt"
	"net/http"
)

const healthText = "Room relay server is running!"

// ServeWS handles WebSocket upgrade requests. It validates that the request
// uses the GET method, upgrades the HTTP connection, and hands the new Client
// to the hub, which registers it and starts its pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "addr", r.RemoteAddr, "err", err)
		return
	}

	h.registerClient(NewClient(conn, h, r.RemoteAddr))
}

// HealthHandler provides a simple health check endpoint that returns server status.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, healthText)
}

// HomePageHandler serves an HTML page for joining rooms and exchanging
// messages from a browser.
func HomePageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprint(w, homePage)
}

const homePage = `<!DOCTYPE html>
<html>
<head>
    <title>Room Relay</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages {
            border: 1px solid #ccc;
            height: 300px;
            padding: 10px;
            overflow-y: scroll;
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"] { width: 200px; padding: 5px; margin-right: 10px; }
        button {
            padding: 5px 15px;
            background-color: #007cba;
            color: white;
            border: none;
            cursor: pointer;
        }
        button:hover { background-color: #005a87; }
        button:disabled { background-color: #999; cursor: default; }
        .status { margin: 10px 0; padding: 5px; border-radius: 3px; }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>Room Relay</h1>

    <div id="status" class="status disconnected">Disconnected</div>

    <div>
        <button id="connectButton" onclick="toggleConnection()">Connect</button>
    </div>
    <div style="margin-top: 10px">
        <input type="text" id="roomInput" placeholder="Room" value="lobby" disabled>
        <input type="text" id="userInput" placeholder="User (optional)" disabled>
        <button id="joinButton" onclick="joinRoom()" disabled>Join</button>
        <button id="leaveButton" onclick="leaveRoom()" disabled>Leave</button>
    </div>
    <div style="margin-top: 10px">
        <input type="text" id="messageInput" placeholder="Type a message..." disabled>
        <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
    </div>

    <div id="messages"></div>

    <script>
        let ws = null;
        const messagesDiv = document.getElementById('messages');
        const roomInput = document.getElementById('roomInput');
        const userInput = document.getElementById('userInput');
        const messageInput = document.getElementById('messageInput');
        const connectButton = document.getElementById('connectButton');
        const statusDiv = document.getElementById('status');
        const controls = ['roomInput', 'userInput', 'joinButton', 'leaveButton', 'messageInput', 'sendButton']
            .map(id => document.getElementById(id));

        function addLine(text, color) {
            const line = document.createElement('div');
            line.style.margin = '5px 0';
            line.style.color = color || 'gray';
            line.textContent = text;
            messagesDiv.appendChild(line);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function updateStatus(connected) {
            statusDiv.textContent = connected ? 'Connected' : 'Disconnected';
            statusDiv.className = 'status ' + (connected ? 'connected' : 'disconnected');
            controls.forEach(el => el.disabled = !connected);
            connectButton.textContent = connected ? 'Disconnect' : 'Connect';
        }

        function render(event) {
            const d = event.data || {};
            switch (event.type) {
                case 'connected': addLine('Connected as ' + d.clientId); break;
                case 'joined_room': addLine('Joined ' + d.roomId + ' as ' + d.userId + ' (' + d.participantCount + ' here)'); break;
                case 'left_room': addLine('Left ' + d.roomId); break;
                case 'user_joined': addLine(d.userId + ' joined (' + d.participantCount + ' here)'); break;
                case 'user_left': addLine(d.userId + ' left (' + d.participantCount + ' here)'); break;
                case 'room_message': addLine('[' + d.roomId + '] ' + d.userId + ': ' + d.message, 'green'); break;
                case 'error': addLine('Error: ' + d.message, 'red'); break;
                default: addLine(JSON.stringify(event));
            }
        }

        function connect() {
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/ws');
            ws.onopen = () => updateStatus(true);
            ws.onmessage = (event) => render(JSON.parse(event.data));
            ws.onclose = () => { addLine('Connection closed'); updateStatus(false); ws = null; };
            ws.onerror = () => addLine('Connection error', 'red');
        }

        function toggleConnection() {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.close();
            } else {
                connect();
            }
        }

        function send(payload) {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify(payload));
            }
        }

        function joinRoom() {
            send({ type: 'join_room', roomId: roomInput.value.trim(), userId: userInput.value.trim() || undefined });
        }

        function leaveRoom() {
            send({ type: 'leave_room', roomId: roomInput.value.trim() });
        }

        function sendMessage() {
            const message = messageInput.value.trim();
            if (message) {
                send({ type: 'room_message', roomId: roomInput.value.trim(), message: message });
                messageInput.value = '';
            }
        }

        messageInput.addEventListener('keypress', function(e) {
            if (e.key === 'Enter') {
                sendMessage();
            }
        });
    </script>
</body>
</html>`
