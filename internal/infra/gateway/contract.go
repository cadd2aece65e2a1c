package gateway

// contractABI describes the certification contract the service talks to.
const contractABI = `[
  {
    "type": "function",
    "name": "sendCertificate",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "to", "type": "address"},
      {"name": "username", "type": "string"},
      {"name": "uri", "type": "string"}
    ],
    "outputs": []
  },
  {
    "type": "function",
    "name": "submitNews",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "cid", "type": "string"}
    ],
    "outputs": []
  },
  {
    "type": "function",
    "name": "getTokenIdOfAnUser",
    "stateMutability": "view",
    "inputs": [
      {"name": "user", "type": "address"}
    ],
    "outputs": [
      {"name": "", "type": "uint256"}
    ]
  },
  {
    "type": "function",
    "name": "verifyCid",
    "stateMutability": "view",
    "inputs": [
      {"name": "tokenId", "type": "uint256"},
      {"name": "cid", "type": "string"}
    ],
    "outputs": [
      {"name": "", "type": "bool"}
    ]
  },
  {
    "type": "function",
    "name": "verifyFactCheckerCid",
    "stateMutability": "view",
    "inputs": [
      {"name": "cid", "type": "string"},
      {"name": "factCid", "type": "string"}
    ],
    "outputs": [
      {"name": "", "type": "bool"}
    ]
  },
  {
    "type": "event",
    "name": "transfer",
    "anonymous": false,
    "inputs": [
      {"name": "to", "type": "address", "indexed": true},
      {"name": "tokenId", "type": "uint256", "indexed": false}
    ]
  },
  {
    "type": "event",
    "name": "storedLatestNews",
    "anonymous": false,
    "inputs": [
      {"name": "publisher", "type": "address", "indexed": true},
      {"name": "data", "type": "bytes", "indexed": false}
    ]
  }
]`
