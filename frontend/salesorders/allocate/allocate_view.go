package allocate

// ModalHTML is the allocation modal shell embedded in the order detail
// page. The script mirrors the selection state machine: per-serial states,
// a two-bit mode register, an in-flight marker per serial, and
// session-close cleanup of acquired-then-discarded holds.
func ModalHTML() string {
	return `<div id="alloc-modal" class="modal hidden">
  <div class="modal-box">
    <header><h2 id="alloc-title"></h2><button type="button" id="alloc-close">&times;</button></header>
    <div class="modes">
      <label><input type="checkbox" id="mode-allocate" checked> Allocate</label>
      <label><input type="checkbox" id="mode-fulfill"> Fulfill</label>
      <span id="alloc-avail"></span>
    </div>
    <p id="alloc-message" class="error"></p>
    <div id="alloc-serials"></div>
    <div id="alloc-qty" class="hidden">
      <label>Allocated <input type="number" id="qty-allocated" min="0" value="0"></label>
      <label>Fulfilled <input type="number" id="qty-fulfilled" min="0" value="0" disabled></label>
    </div>
    <footer><button type="button" id="alloc-done">Done</button></footer>
  </div>
</div>` + modalScript
}

const modalScript = `<script>
(function () {
  var modal = document.getElementById("alloc-modal");
  var state = null;

  function requesterParams() {
    var m = document.cookie.match(/(?:^|;\s*)X-Guest-Id=([^;]*)/);
    return m ? "&guestId=" + encodeURIComponent(m[1]) : "";
  }

  function post(path, body) {
    return fetch(path + "?" + requesterParams().replace(/^&/, ""), {
      method: "POST",
      headers: { "Content-Type": "application/x-www-form-urlencoded" },
      body: body
    }).then(function (r) { return r.json(); });
  }

  function loadSnapshot() {
    var url = "/tasker/api/allocation-data?itemNumber=" + encodeURIComponent(state.itemNumber) +
      "&currentSopNumber=" + encodeURIComponent(state.sopNumber) + requesterParams();
    return fetch(url).then(function (r) {
      if (!r.ok) { throw new Error("stock data unavailable"); }
      return r.json();
    });
  }

  function candidateState(s) {
    if (s.isAllocatedByOtherOrder) { return "blocked-order"; }
    if (state.selected.indexOf(s.serialNumber) >= 0) {
      return state.fulfilled.indexOf(s.serialNumber) >= 0 ? "selected-fulfilled" : "selected";
    }
    if (s.reservedBy && !s.isReservedByMe) { return "blocked-reserved"; }
    return "free";
  }

  function render(snap) {
    state.snapshot = snap;
    var msg = document.getElementById("alloc-message");
    msg.textContent = state.message || "";
    state.message = "";

    if (snap.trackingOption !== "serialized") {
      document.getElementById("alloc-serials").innerHTML = "";
      document.getElementById("alloc-qty").classList.remove("hidden");
      document.getElementById("alloc-avail").textContent = "Available: " + snap.availableQty;
      return;
    }
    document.getElementById("alloc-qty").classList.add("hidden");

    // effectiveSiteAvail is a display-only hint: the server's availableQty
    // minus what this modal has selected locally. The server never
    // validates it; reservations are the real gate.
    var effectiveSiteAvail = Number(snap.availableQty) - state.selected.length;
    document.getElementById("alloc-avail").textContent =
      "Available: " + snap.availableQty + " (after selection: " + effectiveSiteAvail + ")";

    var rows = snap.serials.map(function (s) {
      var st = candidateState(s);
      var label = s.serialNumber;
      if (st === "blocked-order") { label += " — on order " + s.allocatedToSopNumber; }
      else if (st === "blocked-reserved") { label += " — held by " + (s.reservedByName || s.reservedBy); }
      return '<li class="' + st + '" data-serial="' + s.serialNumber + '">' +
        '<button type="button">' + label + ' (' + s.agingDays + 'd)</button></li>';
    });
    document.getElementById("alloc-serials").innerHTML = "<ul>" + rows.join("") + "</ul>";
  }

  function refresh() { return loadSnapshot().then(render); }

  function modes() {
    return {
      allocate: document.getElementById("mode-allocate").checked,
      fulfill: document.getElementById("mode-fulfill").checked
    };
  }

  function toggle(serial) {
    if (state.inFlight[serial]) { return; }
    var snap = state.snapshot;
    var entry = null;
    for (var i = 0; i < snap.serials.length; i++) {
      if (snap.serials[i].serialNumber === serial) { entry = snap.serials[i]; }
    }
    if (!entry || entry.isAllocatedByOtherOrder) { return; }

    var m = modes();
    var selIdx = state.selected.indexOf(serial);
    var fulIdx = state.fulfilled.indexOf(serial);

    if (!m.allocate && m.fulfill) {
      if (selIdx < 0) {
        state.message = "serial must be allocated before it can be fulfilled";
      } else if (fulIdx < 0) {
        state.fulfilled.push(serial);
      } else {
        state.fulfilled.splice(fulIdx, 1);
      }
      render(snap);
      return;
    }

    if (selIdx >= 0) {
      if (m.allocate && m.fulfill && fulIdx < 0) {
        state.fulfilled.push(serial);
        render(snap);
        return;
      }
      state.inFlight[serial] = true;
      post("/tasker/api/serials/release",
        "itemNumber=" + encodeURIComponent(state.itemNumber) + "&serialNumber=" + encodeURIComponent(serial))
        .then(function () {
          state.selected.splice(selIdx, 1);
          if (fulIdx >= 0) { state.fulfilled.splice(fulIdx, 1); }
          delete state.acquired[serial];
        })
        .catch(function () { state.message = "release unavailable"; })
        .then(function () { delete state.inFlight[serial]; return refresh(); });
      return;
    }

    if (state.selected.length >= state.orderedQty) {
      state.message = "line quantity of " + state.orderedQty + " already allocated";
      render(snap);
      return;
    }

    state.inFlight[serial] = true;
    post("/tasker/api/serials/reserve",
      "itemNumber=" + encodeURIComponent(state.itemNumber) + "&serialNumber=" + encodeURIComponent(serial))
      .then(function (res) {
        if (res.success) {
          state.selected.push(serial);
          state.acquired[serial] = true;
          if (m.fulfill) { state.fulfilled.push(serial); }
        } else {
          state.message = res.reservedBy ? "serial is reserved by " + res.reservedBy : (res.error || "reservation failed");
        }
      })
      .catch(function () { state.message = "reservation unavailable"; })
      .then(function () { delete state.inFlight[serial]; return refresh(); });
  }

  function closeModal() {
    // Release holds acquired in this session that did not survive into the
    // final selection. Fire and forget.
    Object.keys(state.acquired).forEach(function (serial) {
      if (state.selected.indexOf(serial) < 0) {
        post("/tasker/api/serials/release",
          "itemNumber=" + encodeURIComponent(state.itemNumber) + "&serialNumber=" + encodeURIComponent(serial))
          .catch(function () {});
      }
    });
    modal.classList.add("hidden");
    if (state.onDone) { state.onDone(state.selected.slice(), state.fulfilled.slice()); }
    state = null;
  }

  window.openAllocationModal = function (itemNumber, sopNumber, orderedQty, onDone) {
    state = {
      itemNumber: itemNumber, sopNumber: sopNumber, orderedQty: orderedQty,
      selected: [], fulfilled: [], acquired: {}, inFlight: {}, message: "", onDone: onDone
    };
    document.getElementById("alloc-title").textContent = itemNumber;
    modal.classList.remove("hidden");
    refresh().catch(function (err) {
      document.getElementById("alloc-message").textContent = err.message;
    });
  };

  document.getElementById("alloc-serials").addEventListener("click", function (e) {
    var li = e.target.closest("li[data-serial]");
    if (li && state) { toggle(li.getAttribute("data-serial")); }
  });
  document.getElementById("alloc-close").addEventListener("click", closeModal);
  document.getElementById("alloc-done").addEventListener("click", closeModal);

  var qtyAlloc = document.getElementById("qty-allocated");
  var qtyFul = document.getElementById("qty-fulfilled");
  document.getElementById("mode-fulfill").addEventListener("change", function (e) {
    qtyFul.disabled = !e.target.checked;
    if (e.target.checked && state && !state.fulfillSeeded) {
      qtyFul.value = qtyAlloc.value;
      state.fulfillSeeded = true;
    }
  });
  qtyAlloc.addEventListener("change", function () {
    var v = Math.max(0, Math.min(Number(qtyAlloc.value) || 0, state ? state.orderedQty : 0));
    qtyAlloc.value = v;
    if (Number(qtyFul.value) > v) { qtyFul.value = v; }
  });
  qtyFul.addEventListener("change", function () {
    var v = Math.max(0, Math.min(Number(qtyFul.value) || 0, Number(qtyAlloc.value) || 0));
    qtyFul.value = v;
  });

  window.addEventListener("beforeunload", function () {
    if (state) { closeModal(); }
  });
})();
</script>`
